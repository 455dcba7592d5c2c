package models

import "time"

const (
	InteractionTypePrayed    = "prayed"
	InteractionTypeEncourage = "encourage"
)

const (
	MaxEncouragementLength   = 100
	RecentEncouragementLimit = 5
)

type PrayerInteraction struct {
	Prayer_Interaction_ID int       `json:"id" db:"prayer_interaction_id" goqu:"skipinsert"`
	Prayer_Request_ID     string    `json:"prayer_request_id" db:"prayer_request_id"`
	User_Profile_ID       int       `json:"user_profile_id" db:"user_profile_id"`
	Interaction_Type      string    `json:"interaction_type" db:"interaction_type"`
	Message               string    `json:"message" db:"message"`
	Datetime_Create       time.Time `json:"datetime_create" db:"datetime_create" goqu:"skipinsert"`
}

// InteractionWithUser is an interaction joined with its actor's profile.
type InteractionWithUser struct {
	Prayer_Interaction_ID int       `db:"prayer_interaction_id"`
	Prayer_Request_ID     string    `db:"prayer_request_id"`
	User_Profile_ID       int       `db:"user_profile_id"`
	Message               string    `db:"message"`
	Datetime_Create       time.Time `db:"datetime_create"`
	Username              string    `db:"username"`
	First_Name            string    `db:"first_name"`
	Last_Name             string    `db:"last_name"`
	Photo_URL             *string   `db:"photo_url"`
}

func (i InteractionWithUser) Actor() UserSummary {
	return UserSummary{
		ID:          i.User_Profile_ID,
		Username:    i.Username,
		DisplayName: DisplayName(i.Username, i.First_Name, i.Last_Name),
		Avatar:      i.Photo_URL,
	}
}

type EncouragementCreate struct {
	Message string `json:"message"`
}

type EncouragementView struct {
	ID        int          `json:"id"`
	User      *UserSummary `json:"user"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}

type PrayedUser struct {
	UserSummary
	PrayedAt time.Time `json:"prayed_at"`
}

type PrayResult struct {
	Detail      string `json:"detail"`
	PrayerCount int    `json:"prayer_count"`
	Created     bool   `json:"-"`
}
