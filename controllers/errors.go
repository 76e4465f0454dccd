package controllers

import (
	"errors"
	"net/http"

	"wolontariat/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a domain error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyMember),
		errors.Is(err, apperr.ErrDuplicateApplication),
		errors.Is(err, apperr.ErrDuplicate),
		errors.Is(err, apperr.ErrFull),
		errors.Is(err, apperr.ErrOfferClosed),
		errors.Is(err, apperr.ErrSignupCancelled):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidSelfRating),
		errors.Is(err, apperr.ErrInvalidScore),
		errors.Is(err, apperr.ErrInvalidStatus),
		errors.Is(err, apperr.ErrInvalidOffer),
		errors.Is(err, apperr.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apperr.ErrStoreUnavailable), errors.Is(err, apperr.ErrConflict):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// codeFor returns the sentinel name clients can switch on
func codeFor(err error) string {
	for _, sentinel := range []error{
		apperr.ErrNotFound,
		apperr.ErrAlreadyMember,
		apperr.ErrDuplicateApplication,
		apperr.ErrDuplicate,
		apperr.ErrFull,
		apperr.ErrOfferClosed,
		apperr.ErrSignupCancelled,
		apperr.ErrInvalidSelfRating,
		apperr.ErrInvalidScore,
		apperr.ErrInvalidStatus,
		apperr.ErrInvalidOffer,
		apperr.ErrInvalidProfile,
		apperr.ErrRateLimited,
		apperr.ErrStoreUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal_error"
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": codeFor(err), "message": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
}
