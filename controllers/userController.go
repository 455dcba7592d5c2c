package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SaltAndLight/models"
)

type UserService interface {
	Signup(ctx context.Context, in models.UserProfileSignup) (models.UserProfile, error)
	Login(ctx context.Context, in models.Login) (string, models.UserProfile, error)
	GetProfile(ctx context.Context, id int) (models.UserProfile, error)
	Follow(ctx context.Context, follower models.UserProfile, targetID int) (bool, error)
	Unfollow(ctx context.Context, follower models.UserProfile, targetID int) error
	StorePushToken(ctx context.Context, user models.UserProfile, in models.PushTokenRequest) error
}

type UserController struct {
	service UserService
	log     logrus.FieldLogger
}

func NewUserController(service UserService, log logrus.FieldLogger) *UserController {
	return &UserController{service: service, log: log}
}

func (uc *UserController) Signup(c *gin.Context) {
	var in models.UserProfileSignup
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := uc.service.Signup(c.Request.Context(), in)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully.",
		"user":    user,
	})
}

func (uc *UserController) Login(c *gin.Context) {
	var in models.Login
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := uc.service.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User logged in successfully.",
		"token":   token,
		"user":    user,
	})
}

func (uc *UserController) GetProfile(c *gin.Context) {
	user, err := uc.service.GetProfile(c.Request.Context(), currentUser(c).User_Profile_ID)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User profile retrieved successfully.",
		"user":    user,
	})
}

func (uc *UserController) Follow(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_profile_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user profile ID", "details": err.Error()})
		return
	}

	created, err := uc.service.Follow(c.Request.Context(), currentUser(c), targetID)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Now following user."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Already following user."})
}

func (uc *UserController) Unfollow(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_profile_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user profile ID", "details": err.Error()})
		return
	}

	if err := uc.service.Unfollow(c.Request.Context(), currentUser(c), targetID); err != nil {
		respondError(c, uc.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (uc *UserController) StorePushToken(c *gin.Context) {
	var in models.PushTokenRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := uc.service.StorePushToken(c.Request.Context(), currentUser(c), in); err != nil {
		respondError(c, uc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push token stored successfully."})
}
