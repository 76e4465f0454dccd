package controllers

import (
	"net/http"

	"wolontariat/internal/roster"
	"wolontariat/middlewares"
	"wolontariat/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OfferController struct {
	roster *roster.Manager
	log    *zap.Logger
}

func NewOfferController(r *roster.Manager, log *zap.Logger) *OfferController {
	return &OfferController{roster: r, log: log.Named("offers")}
}

func callerOrganization(c *gin.Context) roster.Organization {
	return roster.Organization{
		ID:   c.GetString(middlewares.ContextUserID),
		Name: c.GetString(middlewares.ContextDisplayName),
	}
}

// CreateOffer publishes a new offer for the calling organization
func (oc *OfferController) CreateOffer(c *gin.Context) {
	var req models.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	offer, err := oc.roster.Create(c.Request.Context(), callerOrganization(c), req)
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (oc *OfferController) ListOffers(c *gin.Context) {
	offers, err := oc.roster.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (oc *OfferController) GetOffer(c *gin.Context) {
	offer, err := oc.roster.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// UpdateOfferStatus deactivates, reactivates or completes an offer
func (oc *OfferController) UpdateOfferStatus(c *gin.Context) {
	var req models.UpdateOfferStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	offer, err := oc.roster.SetStatus(c.Request.Context(), callerOrganization(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}
