package models

import "time"

// PasswordResetToken is a one-time code mailed to a user who forgot their
// password.
type PasswordResetToken struct {
	Token_ID        int       `json:"token_id" db:"password_reset_tokens_id" goqu:"skipinsert"`
	User_Profile_ID int       `json:"user_profile_id" db:"user_profile_id"`
	Code            string    `json:"-" db:"code"`
	Expires_At      time.Time `json:"expires_at" db:"expires_at"`
	Used            bool      `json:"used" db:"used"`
	Attempts        int       `json:"attempts" db:"attempts"`
	Created_At      time.Time `json:"created_at" db:"created_at" goqu:"skipinsert"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Token        string `json:"token" binding:"required"`
	New_Password string `json:"new_password" binding:"required,min=8"`
}
