package roster

import (
	"context"
	"fmt"
	"strings"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Organization identifies the publisher of an offer
type Organization struct {
	ID   string
	Name string
}

// Get returns the offer with the given id
func (m *Manager) Get(ctx context.Context, offerID string) (*models.Offer, error) {
	var offer models.Offer
	if err := m.store.Get(ctx, db.OffersCollection, offerID, &offer); err != nil {
		return nil, fmt.Errorf("get offer %s: %w", offerID, err)
	}
	return &offer, nil
}

// Create publishes a new active offer with an empty roster
func (m *Manager) Create(ctx context.Context, org Organization, req models.CreateOfferRequest) (*models.Offer, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.MaxParticipants < 1 || org.ID == "" {
		return nil, apperr.ErrInvalidOffer
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, fmt.Errorf("%w: offer ends before it starts", apperr.ErrInvalidOffer)
	}

	now := m.now().UTC()
	offer := models.Offer{
		ID:                  primitive.NewObjectID().Hex(),
		Title:               title,
		Description:         strings.TrimSpace(req.Description),
		OrganizationID:      org.ID,
		OrganizationName:    org.Name,
		MaxParticipants:     req.MaxParticipants,
		CurrentParticipants: 0,
		Participants:        []string{},
		Status:              models.OfferActive,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := m.store.Create(ctx, db.OffersCollection, &offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}

	m.log.Info("offer created",
		zap.String("offerId", offer.ID),
		zap.String("organizationId", org.ID),
		zap.Int("maxParticipants", offer.MaxParticipants))
	return &offer, nil
}

// ListActive returns the offers currently accepting volunteers
func (m *Manager) ListActive(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	if err := m.store.Query(ctx, db.OffersCollection, bson.M{"status": models.OfferActive}, &offers); err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// ListAll returns every offer whatever its status
func (m *Manager) ListAll(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	if err := m.store.Query(ctx, db.OffersCollection, nil, &offers); err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// ListJoined returns the offers whose roster contains volunteerID
func (m *Manager) ListJoined(ctx context.Context, volunteerID string) ([]models.Offer, error) {
	var offers []models.Offer
	if err := m.store.Query(ctx, db.OffersCollection, bson.M{"participants": volunteerID}, &offers); err != nil {
		return nil, fmt.Errorf("list offers for %s: %w", volunteerID, err)
	}
	return offers, nil
}

// SetStatus changes the lifecycle status. Completed offers are archived, not
// deleted, so their roster stays readable.
func (m *Manager) SetStatus(ctx context.Context, org Organization, offerID string, status models.OfferStatus) (*models.Offer, error) {
	if !status.Valid() {
		return nil, apperr.ErrInvalidStatus
	}
	offer, err := m.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.OrganizationID != org.ID {
		return nil, fmt.Errorf("offer %s belongs to another organization: %w", offerID, apperr.ErrNotFound)
	}

	now := m.now().UTC()
	if err := m.store.Update(ctx, db.OffersCollection, offerID, bson.M{"status": status, "updatedAt": now}); err != nil {
		return nil, fmt.Errorf("update offer %s status: %w", offerID, err)
	}

	offer.Status = status
	offer.UpdatedAt = now
	offer.Version++
	m.log.Info("offer status changed", zap.String("offerId", offerID), zap.String("status", string(status)))
	return offer, nil
}
