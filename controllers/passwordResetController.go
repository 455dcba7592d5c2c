package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SaltAndLight/models"
)

type PasswordResetService interface {
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) (string, int, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type PasswordResetController struct {
	service PasswordResetService
	log     logrus.FieldLogger
}

func NewPasswordResetController(service PasswordResetService, log logrus.FieldLogger) *PasswordResetController {
	return &PasswordResetController{service: service, log: log}
}

// ForgotPassword answers the same way whether or not the address is known.
func (pc *PasswordResetController) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email address is required"})
		return
	}

	if err := pc.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, pc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If this email exists in our system, a verification code has been sent.",
	})
}

func (pc *PasswordResetController) VerifyResetCode(c *gin.Context) {
	var req models.VerifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and 6-digit code are required"})
		return
	}

	token, userID, err := pc.service.VerifyResetCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Verification code is valid",
		"token":           token,
		"user_profile_id": userID,
	})
}

func (pc *PasswordResetController) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and a new password of at least 8 characters are required"})
		return
	}

	if err := pc.service.ResetPassword(c.Request.Context(), req.Token, req.New_Password); err != nil {
		respondError(c, pc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully. You can now login with your new password.",
	})
}
