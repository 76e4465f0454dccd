// Package volunteers manages volunteer profiles.
package volunteers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/internal/badges"
	"wolontariat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type Service struct {
	store       db.Store
	badges      *badges.Service
	log         *zap.Logger
	maxAttempts int
	now         func() time.Time
}

func NewService(store db.Store, badgeService *badges.Service, log *zap.Logger, maxAttempts int) *Service {
	return &Service{
		store:       store,
		badges:      badgeService,
		log:         log.Named("volunteers"),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Register creates the volunteer's profile with the welcome badge earned.
// A document bootstrapped earlier by a signup is completed in place.
// Registering again only updates the display name.
func (s *Service) Register(ctx context.Context, volunteerID, displayName string) (*models.Volunteer, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperr.ErrInvalidProfile
	}
	now := s.now().UTC().Truncate(time.Millisecond)

	states, _ := badges.Evaluate(models.VolunteerStats{}, []models.BadgeState{badges.Welcome(now)}, now)
	v := models.Volunteer{
		ID:           volunteerID,
		DisplayName:  displayName,
		Applications: []models.Application{},
		Badges:       states,
		Comments:     []models.RatingComment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.store.Create(ctx, db.VolunteersCollection, &v)
	if err == nil {
		s.log.Info("volunteer registered", zap.String("volunteerId", volunteerID))
		return &v, nil
	}
	if !errors.Is(err, apperr.ErrDuplicate) {
		return nil, fmt.Errorf("register volunteer %s: %w", volunteerID, err)
	}
	return s.completeProfile(ctx, volunteerID, displayName, now)
}

func (s *Service) completeProfile(ctx context.Context, volunteerID, displayName string, now time.Time) (*models.Volunteer, error) {
	var result models.Volunteer
	err := db.RetryOnConflict(ctx, s.maxAttempts, func() error {
		var v models.Volunteer
		if err := s.store.Get(ctx, db.VolunteersCollection, volunteerID, &v); err != nil {
			return err
		}

		current := v.Badges
		hasWelcome := false
		for _, b := range current {
			if b.BadgeID == badges.WelcomeBadgeID && b.Earned {
				hasWelcome = true
				break
			}
		}
		if !hasWelcome {
			current = append(current, badges.Welcome(now))
		}
		v.Badges, _ = badges.Evaluate(v.Stats, current, now)
		v.DisplayName = displayName

		err := s.store.UpdateIfVersion(ctx, db.VolunteersCollection, volunteerID, v.Version, bson.M{
			"displayName": v.DisplayName,
			"badges":      v.Badges,
			"updatedAt":   now,
		})
		if err != nil {
			return err
		}
		v.UpdatedAt = now
		v.Version++
		result = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register volunteer %s: %w", volunteerID, err)
	}
	s.log.Info("volunteer profile completed", zap.String("volunteerId", volunteerID))
	return &result, nil
}

// Get returns the volunteer document
func (s *Service) Get(ctx context.Context, volunteerID string) (*models.Volunteer, error) {
	var v models.Volunteer
	if err := s.store.Get(ctx, db.VolunteersCollection, volunteerID, &v); err != nil {
		return nil, fmt.Errorf("get volunteer %s: %w", volunteerID, err)
	}
	return &v, nil
}

// UpdateStats ingests the activity tracker's counters and unlocks badges
func (s *Service) UpdateStats(ctx context.Context, volunteerID string, stats models.VolunteerStats) (*models.Volunteer, []models.Badge, error) {
	return s.badges.ApplyStats(ctx, volunteerID, stats)
}
