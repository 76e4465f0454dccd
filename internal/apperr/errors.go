// Package apperr holds the sentinel errors shared by the store, the enrollment
// engines and the HTTP layer. Callers wrap them with %w and match with errors.Is.
package apperr

import "errors"

var (
	// Store-level failures.
	ErrNotFound         = errors.New("not_found")
	ErrDuplicate        = errors.New("duplicate")
	ErrConflict         = errors.New("version_conflict")
	ErrStoreUnavailable = errors.New("store_unavailable")

	// Roster and ledger guards.
	ErrAlreadyMember        = errors.New("already_member")
	ErrDuplicateApplication = errors.New("duplicate_application")
	ErrFull                 = errors.New("offer_full")
	ErrOfferClosed          = errors.New("offer_closed")
	ErrSignupCancelled      = errors.New("signup_cancelled")
	ErrInvalidOffer         = errors.New("invalid_offer")
	ErrInvalidStatus        = errors.New("invalid_status")

	// Rating guards.
	ErrInvalidSelfRating = errors.New("invalid_self_rating")
	ErrInvalidScore      = errors.New("invalid_score")
	ErrRateLimited       = errors.New("rate_limited")

	ErrInvalidProfile = errors.New("invalid_profile")
)

// IsTerminal reports whether err must be shown to the end user instead of
// being retried.
func IsTerminal(err error) bool {
	switch {
	case errors.Is(err, ErrFull),
		errors.Is(err, ErrInvalidSelfRating),
		errors.Is(err, ErrInvalidScore),
		errors.Is(err, ErrOfferClosed),
		errors.Is(err, ErrSignupCancelled),
		errors.Is(err, ErrDuplicateApplication),
		errors.Is(err, ErrAlreadyMember):
		return true
	}
	return false
}

// IsRetryable reports whether the caller may retry the same request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
