package controllers

import (
	"net/http"

	"wolontariat/internal/badges"
	"wolontariat/internal/ratings"
	"wolontariat/internal/volunteers"
	"wolontariat/middlewares"
	"wolontariat/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VolunteerController struct {
	volunteers *volunteers.Service
	badges     *badges.Service
	ratings    *ratings.Engine
	log        *zap.Logger
}

func NewVolunteerController(v *volunteers.Service, b *badges.Service, r *ratings.Engine, log *zap.Logger) *VolunteerController {
	return &VolunteerController{volunteers: v, badges: b, ratings: r, log: log.Named("volunteers-http")}
}

// Register creates the caller's volunteer profile
func (vc *VolunteerController) Register(c *gin.Context) {
	var req models.RegisterVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := vc.volunteers.Register(c.Request.Context(), c.GetString(middlewares.ContextUserID), req.DisplayName)
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (vc *VolunteerController) GetVolunteer(c *gin.Context) {
	v, err := vc.volunteers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// UpdateStats is called by the activity tracker
func (vc *VolunteerController) UpdateStats(c *gin.Context) {
	var req models.UpdateStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, unlocked, err := vc.volunteers.UpdateStats(c.Request.Context(), c.Param("id"), req.Stats())
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	if unlocked == nil {
		unlocked = []models.Badge{}
	}
	c.JSON(http.StatusOK, gin.H{"stats": v.Stats, "newlyUnlocked": unlocked})
}

func (vc *VolunteerController) GetBadges(c *gin.Context) {
	views, err := vc.badges.Views(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": views})
}

func (vc *VolunteerController) GetRatings(c *gin.Context) {
	record, err := vc.ratings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// AddRating rates the volunteer in the path as the caller
func (vc *VolunteerController) AddRating(c *gin.Context) {
	var req models.AddRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	author := ratings.Author{
		ID:   c.GetString(middlewares.ContextUserID),
		Name: c.GetString(middlewares.ContextDisplayName),
	}
	record, err := vc.ratings.AddRating(c.Request.Context(), c.Param("id"), req.Rating, req.Comment, author)
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}
