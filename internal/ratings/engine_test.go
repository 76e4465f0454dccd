package ratings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/internal/events"
	"wolontariat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingLimiter struct {
	mu    sync.Mutex
	max   int
	seen  map[string]int
	err   error
	calls int
}

func (l *countingLimiter) Allow(_ context.Context, authorID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return false, l.err
	}
	if l.seen == nil {
		l.seen = map[string]int{}
	}
	l.seen[authorID]++
	return l.seen[authorID] <= l.max, nil
}

func seedVolunteer(t *testing.T, store db.Store, id string, badges ...models.BadgeState) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Create(context.Background(), db.VolunteersCollection, &models.Volunteer{
		ID:          id,
		DisplayName: id,
		Badges:      badges,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
}

func newEngine(t *testing.T, limiter Limiter) (*Engine, *db.MemStore, *events.Recorder) {
	t.Helper()
	store := db.NewMemStore()
	rec := &events.Recorder{}
	return NewEngine(store, rec, limiter, zap.NewNop(), db.DefaultMaxAttempts), store, rec
}

func TestAddRatingRecomputesMean(t *testing.T) {
	e, store, rec := newEngine(t, nil)
	ctx := context.Background()
	seedVolunteer(t, store, "target")
	seedVolunteer(t, store, "author", models.BadgeState{BadgeID: "witaj", Earned: true}, models.BadgeState{BadgeID: "bohater"})

	scores := []int{5, 4, 4, 1, 3, 5, 2}
	var record *models.RatingRecord
	for i, score := range scores {
		var err error
		record, err = e.AddRating(ctx, "target", score, fmt.Sprintf("komentarz %d", i), Author{ID: "author", Name: "Ola"})
		require.NoError(t, err)
	}

	assert.Equal(t, len(scores), record.TotalRatings)
	assert.Len(t, record.Comments, len(scores))
	assert.Equal(t, 24.0/7.0, record.AverageRating)
	assert.Equal(t, []string{"witaj"}, record.Comments[0].AuthorBadges)
	assert.Equal(t, "Ola", record.Comments[0].AuthorName)

	stored, err := e.Get(ctx, "target")
	require.NoError(t, err)
	assert.Equal(t, record.AverageRating, stored.AverageRating)
	assert.Equal(t, Mean(stored.Comments), stored.AverageRating)

	assert.Len(t, rec.OfType(models.EventRatingAdded), len(scores))
}

func TestSelfRatingPerformsNoIO(t *testing.T) {
	e, store, _ := newEngine(t, nil)
	ctx := context.Background()
	seedVolunteer(t, store, "v1")

	touched := false
	store.SetFault(func(op, collection, id string) error {
		touched = true
		return nil
	})

	_, err := e.AddRating(ctx, "v1", 5, "Super!", Author{ID: "v1"})
	assert.ErrorIs(t, err, apperr.ErrInvalidSelfRating)
	assert.False(t, touched)
}

func TestInvalidScore(t *testing.T) {
	e, store, _ := newEngine(t, nil)
	ctx := context.Background()
	seedVolunteer(t, store, "target")

	for _, tc := range []struct {
		rating  int
		comment string
	}{
		{0, "ok"},
		{6, "ok"},
		{-1, "ok"},
		{3, "   "},
	} {
		_, err := e.AddRating(ctx, "target", tc.rating, tc.comment, Author{ID: "author"})
		assert.ErrorIs(t, err, apperr.ErrInvalidScore, "rating %d comment %q", tc.rating, tc.comment)
	}

	record, err := e.Get(ctx, "target")
	require.NoError(t, err)
	assert.Zero(t, record.TotalRatings)
	assert.NotNil(t, record.Comments)
}

func TestAddRatingUnknownTarget(t *testing.T) {
	e, _, _ := newEngine(t, nil)
	_, err := e.AddRating(context.Background(), "ghost", 4, "Dzieki", Author{ID: "author"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentRatingsAreNotLost(t *testing.T) {
	e, store, _ := newEngine(t, nil)
	ctx := context.Background()
	seedVolunteer(t, store, "target")

	const authors = 5
	var wg sync.WaitGroup
	errs := make([]error, authors)
	for i := 0; i < authors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.AddRating(ctx, "target", i%5+1, "dobra robota", Author{ID: fmt.Sprintf("a%d", i)})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	record, err := e.Get(ctx, "target")
	require.NoError(t, err)
	assert.Equal(t, authors, record.TotalRatings)
	assert.Len(t, record.Comments, authors)
	assert.Equal(t, 3.0, record.AverageRating)
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{max: 2}
	e, store, _ := newEngine(t, limiter)
	ctx := context.Background()
	seedVolunteer(t, store, "target")

	for i := 0; i < 2; i++ {
		_, err := e.AddRating(ctx, "target", 4, "ok", Author{ID: "author"})
		require.NoError(t, err)
	}
	_, err := e.AddRating(ctx, "target", 4, "ok", Author{ID: "author"})
	assert.ErrorIs(t, err, apperr.ErrRateLimited)

	// Self-ratings are refused before the limiter is consulted
	_, err = e.AddRating(ctx, "author", 4, "ok", Author{ID: "author"})
	assert.ErrorIs(t, err, apperr.ErrInvalidSelfRating)
	assert.Equal(t, 3, limiter.calls)

	// A broken limiter does not block ratings
	limiter.err = errors.New("redis down")
	_, err = e.AddRating(ctx, "target", 2, "ok", Author{ID: "author"})
	assert.NoError(t, err)
}

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Equal(t, 2.5, Mean([]models.RatingComment{{Rating: 2}, {Rating: 3}}))
}
