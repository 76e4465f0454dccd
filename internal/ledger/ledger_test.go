package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLedger(t *testing.T) (*Ledger, *db.MemStore) {
	t.Helper()
	store := db.NewMemStore()
	return NewLedger(store, zap.NewNop(), db.DefaultMaxAttempts), store
}

func application(id, offerID string) models.Application {
	return models.Application{
		ID:               id,
		OfferID:          offerID,
		OfferTitle:       "Zbiorka zywnosci",
		OrganizationName: "Bank Zywnosci",
		Status:           models.ApplicationPending,
		AppliedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestAppendBootstrapsDocument(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, "v1", application("a1", "o1")))

	var v models.Volunteer
	require.NoError(t, store.Get(ctx, db.VolunteersCollection, "v1", &v))
	require.Len(t, v.Applications, 1)
	assert.Equal(t, "a1", v.Applications[0].ID)

	require.NoError(t, l.Append(ctx, "v1", application("a2", "o2")))
	err := l.Append(ctx, "v1", application("a3", "o1"))
	assert.ErrorIs(t, err, apperr.ErrDuplicateApplication)

	apps, err := l.List(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "a1", apps[0].ID)
	assert.Equal(t, "a2", apps[1].ID)
}

func TestRemove(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	removed, err := l.Remove(ctx, "nobody", "a1")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, l.Append(ctx, "v1", application("a1", "o1")))
	require.NoError(t, l.Append(ctx, "v1", application("a2", "o2")))

	removed, err = l.Remove(ctx, "v1", "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = l.Remove(ctx, "v1", "a1")
	require.NoError(t, err)
	assert.True(t, removed)

	apps, err := l.List(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "a2", apps[0].ID)
}

func TestSetStatus(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Append(ctx, "v1", application("a1", "o1")))
	require.NoError(t, l.Append(ctx, "v1", application("a2", "o2")))

	app, err := l.SetStatus(ctx, "v1", "a1", models.ApplicationRejected, "brak miejsc")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, app.Status)
	assert.Equal(t, "brak miejsc", app.RejectionReason)

	apps, err := l.List(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, apps[0].Status)
	assert.Equal(t, models.ApplicationPending, apps[1].Status)

	app, err = l.SetStatus(ctx, "v1", "a1", models.ApplicationAccepted, "ignored")
	require.NoError(t, err)
	assert.Empty(t, app.RejectionReason)

	_, err = l.SetStatus(ctx, "v1", "a1", "approved", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidStatus)

	_, err = l.SetStatus(ctx, "v1", "missing", models.ApplicationAccepted, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = l.SetStatus(ctx, "nobody", "a1", models.ApplicationAccepted, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListAbsentVolunteer(t *testing.T) {
	l, _ := newTestLedger(t)
	apps, err := l.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)

	_, found, err := l.Find(context.Background(), "nobody", "o1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAppendConcurrentKeepsEveryApplication(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Append(ctx, "v1", application(fmt.Sprintf("a%d", i), fmt.Sprintf("o%d", i)))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	apps, err := l.List(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, apps, n)
}
