package models

import (
	"slices"
	"time"
)

// OfferStatus is the lifecycle status of an offer
type OfferStatus string

const (
	OfferActive    OfferStatus = "active"
	OfferInactive  OfferStatus = "inactive"
	OfferCompleted OfferStatus = "completed"
)

// Valid reports whether s is a known offer status
func (s OfferStatus) Valid() bool {
	switch s {
	case OfferActive, OfferInactive, OfferCompleted:
		return true
	}
	return false
}

// Offer represents a volunteering opportunity published by an organization.
// Participants and CurrentParticipants form the roster and are only written
// by the roster manager.
type Offer struct {
	ID                  string      `bson:"_id" json:"id"`
	Title               string      `bson:"title" json:"title"`
	Description         string      `bson:"description,omitempty" json:"description,omitempty"`
	OrganizationID      string      `bson:"organizationId" json:"organizationId"`
	OrganizationName    string      `bson:"organizationName" json:"organizationName"`
	MaxParticipants     int         `bson:"maxParticipants" json:"maxParticipants"`
	CurrentParticipants int         `bson:"currentParticipants" json:"currentParticipants"`
	Participants        []string    `bson:"participants" json:"participants"`
	Status              OfferStatus `bson:"status" json:"status"`
	StartsAt            *time.Time  `bson:"startsAt,omitempty" json:"startsAt,omitempty"`
	EndsAt              *time.Time  `bson:"endsAt,omitempty" json:"endsAt,omitempty"`
	Version             int64       `bson:"version" json:"-"`
	CreatedAt           time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// HasParticipant reports whether volunteerID is on the roster
func (o *Offer) HasParticipant(volunteerID string) bool {
	return slices.Contains(o.Participants, volunteerID)
}

// IsFull returns true when no places remain
func (o *Offer) IsFull() bool {
	return o.CurrentParticipants >= o.MaxParticipants || len(o.Participants) >= o.MaxParticipants
}

// Remaining returns the number of free places
func (o *Offer) Remaining() int {
	left := o.MaxParticipants - max(o.CurrentParticipants, len(o.Participants))
	return max(left, 0)
}

// AcceptsSignups reports whether the offer is active and inside its time window at now
func (o *Offer) AcceptsSignups(now time.Time) bool {
	if o.Status != OfferActive {
		return false
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false
	}
	return true
}

// CreateOfferRequest is the payload an organization sends to publish an offer
type CreateOfferRequest struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	MaxParticipants int        `json:"maxParticipants" binding:"required,min=1"`
	StartsAt        *time.Time `json:"startsAt,omitempty"`
	EndsAt          *time.Time `json:"endsAt,omitempty"`
}

// UpdateOfferStatusRequest changes the lifecycle status of an offer
type UpdateOfferStatusRequest struct {
	Status OfferStatus `json:"status" binding:"required"`
}
