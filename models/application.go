package models

import "time"

// ApplicationStatus is the review status of an application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is a known application status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application is a volunteer's request to join an offer. It lives inside the
// volunteer document and carries a copy of the offer title and organization
// name so it can be shown without reading the offer.
type Application struct {
	ID               string            `bson:"id" json:"id"`
	OfferID          string            `bson:"offerId" json:"offerId"`
	OfferTitle       string            `bson:"offerTitle" json:"offerTitle"`
	OrganizationName string            `bson:"organizationName" json:"organizationName"`
	Status           ApplicationStatus `bson:"status" json:"status"`
	RejectionReason  string            `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	AppliedAt        time.Time         `bson:"appliedAt" json:"appliedAt"`
}

// SetApplicationStatusRequest is sent by the organization-side review flow
type SetApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" binding:"required"`
	Reason string            `json:"reason,omitempty"`
}
