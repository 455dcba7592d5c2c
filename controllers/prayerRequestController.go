package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SaltAndLight/models"
)

type PrayerRequestService interface {
	List(ctx context.Context, viewer *models.UserProfile, q models.PrayerRequestQuery) (models.PrayerRequestPage, error)
	ListAnswered(ctx context.Context, viewer *models.UserProfile, q models.PrayerRequestQuery) (models.PrayerRequestPage, error)
	Get(ctx context.Context, viewer *models.UserProfile, id string) (models.PrayerRequestView, error)
	Create(ctx context.Context, owner models.UserProfile, in models.PrayerRequestCreate) (models.PrayerRequestView, error)
	Update(ctx context.Context, actor models.UserProfile, id string, in models.PrayerRequestUpdate) (models.PrayerRequestView, error)
	Delete(ctx context.Context, actor models.UserProfile, id string) error
	Pray(ctx context.Context, actor models.UserProfile, id string) (models.PrayResult, error)
	Unpray(ctx context.Context, actor models.UserProfile, id string) (models.PrayResult, error)
	AddEncouragement(ctx context.Context, actor models.UserProfile, id, message string) (models.EncouragementView, error)
	ListEncouragements(ctx context.Context, viewer *models.UserProfile, id string) ([]models.EncouragementView, error)
	PrayedUsers(ctx context.Context, viewer *models.UserProfile, id string) ([]models.PrayedUser, error)
	MarkAnswered(ctx context.Context, actor models.UserProfile, id string, in models.MarkAnsweredRequest) (models.PrayerRequestView, error)
}

type PrayerRequestController struct {
	service PrayerRequestService
	log     logrus.FieldLogger
}

func NewPrayerRequestController(service PrayerRequestService, log logrus.FieldLogger) *PrayerRequestController {
	return &PrayerRequestController{service: service, log: log}
}

func (pc *PrayerRequestController) List(c *gin.Context) {
	var q models.PrayerRequestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	page, err := pc.service.List(c.Request.Context(), viewer(c), q)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (pc *PrayerRequestController) ListAnswered(c *gin.Context) {
	var q models.PrayerRequestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	page, err := pc.service.ListAnswered(c.Request.Context(), viewer(c), q)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (pc *PrayerRequestController) Get(c *gin.Context) {
	view, err := pc.service.Get(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (pc *PrayerRequestController) Create(c *gin.Context) {
	var in models.PrayerRequestCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := pc.service.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (pc *PrayerRequestController) Update(c *gin.Context) {
	var in models.PrayerRequestUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := pc.service.Update(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (pc *PrayerRequestController) Delete(c *gin.Context) {
	if err := pc.service.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Pray is idempotent; repeat calls report the current count with 200.
func (pc *PrayerRequestController) Pray(c *gin.Context) {
	result, err := pc.service.Pray(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (pc *PrayerRequestController) Unpray(c *gin.Context) {
	result, err := pc.service.Unpray(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (pc *PrayerRequestController) AddEncouragement(c *gin.Context) {
	var in models.EncouragementCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := pc.service.AddEncouragement(c.Request.Context(), currentUser(c), c.Param("id"), in.Message)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (pc *PrayerRequestController) ListEncouragements(c *gin.Context) {
	views, err := pc.service.ListEncouragements(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (pc *PrayerRequestController) PrayedUsers(c *gin.Context) {
	users, err := pc.service.PrayedUsers(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (pc *PrayerRequestController) MarkAnswered(c *gin.Context) {
	var in models.MarkAnsweredRequest
	// An empty body is allowed; both fields are optional.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	view, err := pc.service.MarkAnswered(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
