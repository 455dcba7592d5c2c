package models

import "time"

const (
	VisibilityPublic    = "public"
	VisibilityFriends   = "friends"
	VisibilityAnonymous = "anonymous"
)

const (
	StatusActive   = "active"
	StatusAnswered = "answered"
)

const (
	SortNewest     = "newest"
	SortMostPrayed = "most_prayed"
	SortAnswered   = "answered"
)

const (
	MaxShortDescriptionLength  = 200
	MaxCategoryLength          = 50
	MaxAnsweredNoteLength      = 200
	MaxAnsweredScriptureLength = 120
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PrayerRequest struct {
	Prayer_Request_ID  string     `json:"id" db:"prayer_request_id"`
	User_Profile_ID    *int       `json:"user_profile_id" db:"user_profile_id"`
	Short_Description  string     `json:"short_description" db:"short_description"`
	Category           string     `json:"category" db:"category"`
	Visibility         string     `json:"visibility" db:"visibility"`
	Status             string     `json:"status" db:"status"`
	Answered_Note      string     `json:"answered_note" db:"answered_note"`
	Answered_Scripture string     `json:"answered_scripture" db:"answered_scripture"`
	Answered_At        *time.Time `json:"answered_at" db:"answered_at"`
	Datetime_Create    time.Time  `json:"datetime_create" db:"datetime_create" goqu:"skipinsert"`
	Datetime_Update    time.Time  `json:"datetime_update" db:"datetime_update" goqu:"skipinsert"`
}

// IsOwnedBy reports whether userID is the request's owner. Requests whose
// owner was deleted are owned by nobody.
func (p PrayerRequest) IsOwnedBy(userID *int) bool {
	return userID != nil && p.User_Profile_ID != nil && *p.User_Profile_ID == *userID
}

// VisibleTo applies the read rule for a viewer. viewerID is nil for
// unauthenticated readers; followsOwner reports a viewer -> owner follow edge.
func (p PrayerRequest) VisibleTo(viewerID *int, followsOwner bool) bool {
	switch p.Visibility {
	case VisibilityPublic, VisibilityAnonymous:
		return true
	}
	if viewerID == nil {
		return false
	}
	if p.IsOwnedBy(viewerID) {
		return true
	}
	return p.Visibility == VisibilityFriends && followsOwner
}

func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityFriends || v == VisibilityAnonymous
}

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusAnswered
}

// PrayerRequestRow is a prayer request joined with its owner and live
// interaction counts for a given viewer.
type PrayerRequestRow struct {
	PrayerRequest
	Owner_Username      *string `db:"owner_username"`
	Owner_First_Name    *string `db:"owner_first_name"`
	Owner_Last_Name     *string `db:"owner_last_name"`
	Owner_Photo_URL     *string `db:"owner_photo_url"`
	Prayer_Count        int     `db:"prayer_count"`
	Encouragement_Count int     `db:"encouragement_count"`
	Has_Prayed          bool    `db:"has_prayed"`
}

// PrayerRequestFilter drives the listing query. A nil ViewerID means the
// caller is unauthenticated.
type PrayerRequestFilter struct {
	ViewerID        *int
	PrayerRequestID string
	Status          string
	Category        string
	Sort            string
	Limit           int
	Offset          int
}

type PrayerRequestQuery struct {
	Status    string `form:"status"`
	Category  string `form:"category"`
	Sort      string `form:"sort"`
	Page      int    `form:"page"`
	Page_Size int    `form:"page_size"`
}

type PrayerRequestCreate struct {
	Short_Description string `json:"short_description" binding:"required"`
	Category          string `json:"category"`
	Visibility        string `json:"visibility"`
}

type PrayerRequestUpdate struct {
	Short_Description *string `json:"short_description"`
	Category          *string `json:"category"`
	Visibility        *string `json:"visibility"`
}

type MarkAnsweredRequest struct {
	Answered_Note      string `json:"answered_note"`
	Answered_Scripture string `json:"answered_scripture"`
}

type PrayerRequestView struct {
	ID                   string              `json:"id"`
	UserProfile          *UserSummary        `json:"user_profile"`
	ShortDescription     string              `json:"short_description"`
	Category             string              `json:"category"`
	Visibility           string              `json:"visibility"`
	Status               string              `json:"status"`
	AnsweredNote         string              `json:"answered_note"`
	AnsweredScripture    string              `json:"answered_scripture"`
	AnsweredAt           *time.Time          `json:"answered_at"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	PrayerCount          int                 `json:"prayer_count"`
	EncouragementCount   int                 `json:"encouragement_count"`
	HasPrayed            bool                `json:"has_prayed"`
	IsOwner              bool                `json:"is_owner"`
	RecentEncouragements []EncouragementView `json:"recent_encouragements"`
}

type PrayerRequestPage struct {
	Count    int                 `json:"count"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Results  []PrayerRequestView `json:"results"`
}
