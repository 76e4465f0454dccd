// Package ratings appends ratings to a volunteer and keeps the average in step
// with the full comment list.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/internal/events"
	"wolontariat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Author is the volunteer leaving a rating
type Author struct {
	ID   string
	Name string
}

// Limiter throttles rating authors
type Limiter interface {
	Allow(ctx context.Context, authorID string) (bool, error)
}

type Engine struct {
	store       db.Store
	publisher   events.Publisher
	limiter     Limiter
	log         *zap.Logger
	maxAttempts int
	now         func() time.Time
}

// NewEngine creates a rating engine. limiter may be nil.
func NewEngine(store db.Store, publisher events.Publisher, limiter Limiter, log *zap.Logger, maxAttempts int) *Engine {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Engine{
		store:       store,
		publisher:   publisher,
		limiter:     limiter,
		log:         log.Named("ratings"),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// AddRating appends a rating to targetID's record and recomputes the average
// from the whole list in the same write. Self-ratings and invalid input are
// rejected before anything is read or written.
func (e *Engine) AddRating(ctx context.Context, targetID string, rating int, comment string, author Author) (*models.RatingRecord, error) {
	if author.ID == targetID {
		return nil, apperr.ErrInvalidSelfRating
	}
	comment = strings.TrimSpace(comment)
	if rating < MinScore || rating > MaxScore {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", apperr.ErrInvalidScore, MinScore, MaxScore)
	}
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required", apperr.ErrInvalidScore)
	}

	if e.limiter != nil {
		allowed, err := e.limiter.Allow(ctx, author.ID)
		if err != nil {
			// Throttling is not worth refusing a rating over
			e.log.Warn("rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, apperr.ErrRateLimited
		}
	}

	authorBadges, err := e.authorBadges(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	entry := models.RatingComment{
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorBadges: authorBadges,
		Rating:       rating,
		Comment:      comment,
		CreatedAt:    e.now().UTC().Truncate(time.Millisecond),
	}

	var record models.RatingRecord
	err = db.RetryOnConflict(ctx, e.maxAttempts, func() error {
		var target models.Volunteer
		if err := e.store.Get(ctx, db.VolunteersCollection, targetID, &target); err != nil {
			return err
		}

		comments := append(slices.Clone(target.Comments), entry)
		average := Mean(comments)
		err := e.store.UpdateIfVersion(ctx, db.VolunteersCollection, targetID, target.Version, bson.M{
			"comments":      comments,
			"totalRatings":  len(comments),
			"averageRating": average,
			"updatedAt":     entry.CreatedAt,
		})
		if err != nil {
			return err
		}

		target.Comments = comments
		target.TotalRatings = len(comments)
		target.AverageRating = average
		record = target.RatingRecord()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate volunteer %s: %w", targetID, err)
	}

	e.log.Info("rating added",
		zap.String("volunteerId", targetID),
		zap.String("authorId", author.ID),
		zap.Int("rating", rating),
		zap.Float64("averageRating", record.AverageRating))

	event := models.GamificationEvent{
		Type:          models.EventRatingAdded,
		UserID:        targetID,
		Rating:        rating,
		AverageRating: record.AverageRating,
		Timestamp:     entry.CreatedAt,
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.log.Warn("failed to publish rating event", zap.Error(err))
	}
	return &record, nil
}

// authorBadges snapshots the author's earned badges. Authors without a
// volunteer document have none.
func (e *Engine) authorBadges(ctx context.Context, authorID string) ([]string, error) {
	var author models.Volunteer
	err := e.store.Get(ctx, db.VolunteersCollection, authorID, &author)
	if errors.Is(err, apperr.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rating author %s: %w", authorID, err)
	}
	return author.EarnedBadgeIDs(), nil
}

// Get returns the rating record of volunteerID
func (e *Engine) Get(ctx context.Context, volunteerID string) (*models.RatingRecord, error) {
	var v models.Volunteer
	if err := e.store.Get(ctx, db.VolunteersCollection, volunteerID, &v); err != nil {
		return nil, fmt.Errorf("get ratings of %s: %w", volunteerID, err)
	}
	record := v.RatingRecord()
	return &record, nil
}

// Mean is the average score of comments, 0 for none
func Mean(comments []models.RatingComment) float64 {
	if len(comments) == 0 {
		return 0
	}
	sum := 0
	for _, c := range comments {
		sum += c.Rating
	}
	return float64(sum) / float64(len(comments))
}
