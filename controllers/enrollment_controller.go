package controllers

import (
	"fmt"
	"net/http"

	"wolontariat/internal/apperr"
	"wolontariat/internal/enrollment"
	"wolontariat/internal/ledger"
	"wolontariat/internal/roster"
	"wolontariat/middlewares"
	"wolontariat/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EnrollmentController struct {
	coordinator *enrollment.Coordinator
	ledger      *ledger.Ledger
	roster      *roster.Manager
	log         *zap.Logger
}

func NewEnrollmentController(coordinator *enrollment.Coordinator, l *ledger.Ledger, r *roster.Manager, log *zap.Logger) *EnrollmentController {
	return &EnrollmentController{coordinator: coordinator, ledger: l, roster: r, log: log.Named("enrollment-http")}
}

// Signup enrolls the caller in the offer. A half-finished signup answers 202
// with the ApplicationOnly enrollment so the client can show it as pending.
func (ec *EnrollmentController) Signup(c *gin.Context) {
	volunteerID := c.GetString(middlewares.ContextUserID)
	result, err := ec.coordinator.Signup(c.Request.Context(), volunteerID, c.Param("id"))
	if err != nil {
		if result != nil && result.State == enrollment.StateApplicationOnly {
			c.JSON(http.StatusAccepted, gin.H{"enrollment": result, "error": codeFor(err), "message": err.Error()})
			return
		}
		respondError(c, ec.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"enrollment": result})
}

func (ec *EnrollmentController) Cancel(c *gin.Context) {
	volunteerID := c.GetString(middlewares.ContextUserID)
	result, err := ec.coordinator.Cancel(c.Request.Context(), volunteerID, c.Param("id"))
	if err != nil {
		respondError(c, ec.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ec *EnrollmentController) Status(c *gin.Context) {
	volunteerID := c.GetString(middlewares.ContextUserID)
	result, err := ec.coordinator.Status(c.Request.Context(), volunteerID, c.Param("id"))
	if err != nil {
		respondError(c, ec.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ec *EnrollmentController) Reconcile(c *gin.Context) {
	volunteerID := c.GetString(middlewares.ContextUserID)
	result, err := ec.coordinator.Reconcile(c.Request.Context(), volunteerID, c.Param("id"))
	// A dropped application is a completed repair even though the join failed
	repaired := result != nil && result.State == enrollment.StateNone
	if err != nil && !repaired {
		respondError(c, ec.log, err)
		return
	}
	response := gin.H{"enrollment": result}
	if err != nil {
		response["error"] = codeFor(err)
	}
	c.JSON(http.StatusOK, response)
}

// ListApplications returns the caller's applications in storage order
func (ec *EnrollmentController) ListApplications(c *gin.Context) {
	apps, err := ec.ledger.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ec.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// SetApplicationStatus lets the offer's organization accept or reject an application
func (ec *EnrollmentController) SetApplicationStatus(c *gin.Context) {
	var req models.SetApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	offerID, volunteerID := c.Param("id"), c.Param("volunteerId")

	offer, err := ec.roster.Get(ctx, offerID)
	if err != nil {
		respondError(c, ec.log, err)
		return
	}
	if offer.OrganizationID != c.GetString(middlewares.ContextUserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not_offer_owner"})
		return
	}

	app, found, err := ec.ledger.Find(ctx, volunteerID, offerID)
	if err != nil {
		respondError(c, ec.log, err)
		return
	}
	if !found {
		respondError(c, ec.log, fmt.Errorf("no application from %s: %w", volunteerID, apperr.ErrNotFound))
		return
	}

	updated, err := ec.ledger.SetStatus(ctx, volunteerID, app.ID, req.Status, req.Reason)
	if err != nil {
		respondError(c, ec.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
