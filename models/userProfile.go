package models

import (
	"strings"
	"time"
)

type UserProfile struct {
	User_Profile_ID int       `json:"id" db:"user_profile_id" goqu:"skipinsert"`
	Username        string    `json:"username" db:"username"`
	Password        string    `json:"-" db:"password"`
	Email           string    `json:"email" db:"email"`
	First_Name      string    `json:"first_name" db:"first_name"`
	Last_Name       string    `json:"last_name" db:"last_name"`
	Photo_URL       *string   `json:"photo_url" db:"photo_url"`
	Admin           bool      `json:"admin" db:"admin" goqu:"skipinsert"`
	Datetime_Create time.Time `json:"datetime_create" db:"datetime_create" goqu:"skipinsert"`
	Datetime_Update time.Time `json:"datetime_update" db:"datetime_update" goqu:"skipinsert"`
}

type UserProfileSignup struct {
	Username   string `json:"username" binding:"required,max=150"`
	Password   string `json:"password" binding:"required,min=8"`
	Email      string `json:"email" binding:"required,email"`
	First_Name string `json:"first_name"`
	Last_Name  string `json:"last_name"`
}

type Login struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserSummary is the lightweight actor shape attached to requests,
// encouragements and prayed-user listings.
type UserSummary struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Avatar      *string `json:"avatar"`
}

// DisplayName returns the full name, falling back to the username when
// neither name part is set.
func DisplayName(username, firstName, lastName string) string {
	full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if full == "" {
		return username
	}
	return full
}

func (u UserProfile) Summary() UserSummary {
	return UserSummary{
		ID:          u.User_Profile_ID,
		Username:    u.Username,
		DisplayName: DisplayName(u.Username, u.First_Name, u.Last_Name),
		Avatar:      u.Photo_URL,
	}
}
