// Package roster owns an offer's participant list and its counter.
package roster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Manager is the only writer of Offer.Participants and Offer.CurrentParticipants.
// Every change is a conditional write on the offer version, so concurrent
// joins re-read and re-check capacity before they can land.
type Manager struct {
	store       db.Store
	log         *zap.Logger
	maxAttempts int
	now         func() time.Time
}

// NewManager creates a roster manager. maxAttempts bounds conflict retries.
func NewManager(store db.Store, log *zap.Logger, maxAttempts int) *Manager {
	return &Manager{
		store:       store,
		log:         log.Named("roster"),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Join adds volunteerID to the offer roster and increments the counter in one write
func (m *Manager) Join(ctx context.Context, offerID, volunteerID string) (*models.Offer, error) {
	var joined models.Offer
	err := db.RetryOnConflict(ctx, m.maxAttempts, func() error {
		offer, err := m.Get(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.HasParticipant(volunteerID) {
			joined = *offer
			return apperr.ErrAlreadyMember
		}
		if offer.IsFull() {
			joined = *offer
			return apperr.ErrFull
		}

		participants := append(slices.Clone(offer.Participants), volunteerID)
		now := m.now().UTC()
		err = m.store.UpdateIfVersion(ctx, db.OffersCollection, offerID, offer.Version, bson.M{
			"participants":        participants,
			"currentParticipants": len(participants),
			"updatedAt":           now,
		})
		if errors.Is(err, apperr.ErrConflict) {
			m.log.Debug("roster changed during join, retrying",
				zap.String("offerId", offerID), zap.String("volunteerId", volunteerID))
			return err
		}
		if err != nil {
			return err
		}

		offer.Participants = participants
		offer.CurrentParticipants = len(participants)
		offer.UpdatedAt = now
		offer.Version++
		joined = *offer
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyMember) || errors.Is(err, apperr.ErrFull) {
			return &joined, fmt.Errorf("join offer %s: %w", offerID, err)
		}
		return nil, fmt.Errorf("join offer %s: %w", offerID, err)
	}

	m.log.Info("volunteer joined offer",
		zap.String("offerId", offerID),
		zap.String("volunteerId", volunteerID),
		zap.Int("currentParticipants", joined.CurrentParticipants),
		zap.Int("maxParticipants", joined.MaxParticipants))
	return &joined, nil
}

// Leave removes volunteerID from the roster. Not being on the roster is not an
// error: an application can exist without the matching roster entry.
// The returned bool reports whether a place was actually released.
func (m *Manager) Leave(ctx context.Context, offerID, volunteerID string) (bool, error) {
	released := false
	err := db.RetryOnConflict(ctx, m.maxAttempts, func() error {
		offer, err := m.Get(ctx, offerID)
		if err != nil {
			return err
		}
		if !offer.HasParticipant(volunteerID) {
			released = false
			return nil
		}

		participants := slices.DeleteFunc(slices.Clone(offer.Participants), func(id string) bool {
			return id == volunteerID
		})
		err = m.store.UpdateIfVersion(ctx, db.OffersCollection, offerID, offer.Version, bson.M{
			"participants":        participants,
			"currentParticipants": len(participants),
			"updatedAt":           m.now().UTC(),
		})
		if err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("leave offer %s: %w", offerID, err)
	}

	if released {
		m.log.Info("volunteer left offer", zap.String("offerId", offerID), zap.String("volunteerId", volunteerID))
	} else {
		m.log.Debug("leave for non-member ignored", zap.String("offerId", offerID), zap.String("volunteerId", volunteerID))
	}
	return released, nil
}

// IsMember reports whether volunteerID is on the offer roster
func (m *Manager) IsMember(ctx context.Context, offerID, volunteerID string) (bool, error) {
	offer, err := m.Get(ctx, offerID)
	if err != nil {
		return false, err
	}
	return offer.HasParticipant(volunteerID), nil
}
