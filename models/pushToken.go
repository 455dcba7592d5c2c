package models

import "time"

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

type PushToken struct {
	User_Push_Tokens_ID int       `json:"id" db:"user_push_tokens_id" goqu:"skipinsert"`
	User_Profile_ID     int       `json:"user_profile_id" db:"user_profile_id"`
	Push_Token          string    `json:"push_token" db:"push_token"`
	Platform            string    `json:"platform" db:"platform"`
	Created_At          time.Time `json:"created_at" db:"created_at" goqu:"skipinsert"`
	Updated_At          time.Time `json:"updated_at" db:"updated_at" goqu:"skipinsert"`
}

type PushTokenRequest struct {
	Push_Token string `json:"push_token" binding:"required"`
	Platform   string `json:"platform" binding:"required,oneof=ios android"`
}
