package badges

import (
	"context"
	"fmt"
	"time"

	"wolontariat/db"
	"wolontariat/internal/events"
	"wolontariat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Service persists badge states on the volunteer document and announces unlocks
type Service struct {
	store       db.Store
	publisher   events.Publisher
	log         *zap.Logger
	maxAttempts int
	now         func() time.Time
}

func NewService(store db.Store, publisher events.Publisher, log *zap.Logger, maxAttempts int) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:       store,
		publisher:   publisher,
		log:         log.Named("badges"),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// ApplyStats stores new activity stats and the badge states they unlock in
// one conditional write. It returns the updated volunteer and the badges
// unlocked by this update.
func (s *Service) ApplyStats(ctx context.Context, volunteerID string, stats models.VolunteerStats) (*models.Volunteer, []models.Badge, error) {
	return s.evaluate(ctx, volunteerID, &stats)
}

// Refresh re-evaluates the stored stats, e.g. after the catalog gained a badge
func (s *Service) Refresh(ctx context.Context, volunteerID string) (*models.Volunteer, []models.Badge, error) {
	return s.evaluate(ctx, volunteerID, nil)
}

func (s *Service) evaluate(ctx context.Context, volunteerID string, stats *models.VolunteerStats) (*models.Volunteer, []models.Badge, error) {
	var (
		result   models.Volunteer
		unlocked []models.Badge
	)
	err := db.RetryOnConflict(ctx, s.maxAttempts, func() error {
		var v models.Volunteer
		if err := s.store.Get(ctx, db.VolunteersCollection, volunteerID, &v); err != nil {
			return err
		}

		fields := bson.M{}
		if stats != nil {
			v.Stats = *stats
			fields["stats"] = v.Stats
		}

		now := s.now().UTC().Truncate(time.Millisecond)
		next, newly := Evaluate(v.Stats, v.Badges, now)
		if Changed(v.Badges, next) {
			fields["badges"] = next
		}
		v.Badges = next
		unlocked = newly

		if len(fields) == 0 {
			result = v
			return nil
		}
		fields["updatedAt"] = now
		if err := s.store.UpdateIfVersion(ctx, db.VolunteersCollection, volunteerID, v.Version, fields); err != nil {
			return err
		}
		v.UpdatedAt = now
		v.Version++
		result = v
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate badges for %s: %w", volunteerID, err)
	}

	for _, badge := range unlocked {
		s.log.Info("badge unlocked", zap.String("volunteerId", volunteerID), zap.String("badgeId", badge.ID))
		event := models.GamificationEvent{
			Type:      models.EventBadgeUnlocked,
			UserID:    volunteerID,
			BadgeID:   badge.ID,
			BadgeName: badge.Name,
			Timestamp: s.now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("failed to publish badge event", zap.String("badgeId", badge.ID), zap.Error(err))
		}
	}
	return &result, unlocked, nil
}

// Views returns the catalog with the volunteer's unlock state and progress
func (s *Service) Views(ctx context.Context, volunteerID string) ([]models.BadgeView, error) {
	var v models.Volunteer
	if err := s.store.Get(ctx, db.VolunteersCollection, volunteerID, &v); err != nil {
		return nil, fmt.Errorf("get volunteer %s: %w", volunteerID, err)
	}
	return View(v.Stats, v.Badges), nil
}
