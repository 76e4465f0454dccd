package roster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testOrg = Organization{ID: "org-1", Name: "Fundacja Zielona"}

func newTestManager(t *testing.T) (*Manager, *db.MemStore) {
	t.Helper()
	store := db.NewMemStore()
	return NewManager(store, zap.NewNop(), db.DefaultMaxAttempts), store
}

func createOffer(t *testing.T, m *Manager, capacity int) *models.Offer {
	t.Helper()
	offer, err := m.Create(context.Background(), testOrg, models.CreateOfferRequest{
		Title:           "Sprzatanie parku",
		MaxParticipants: capacity,
	})
	require.NoError(t, err)
	return offer
}

func TestCreateOffer(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	offer := createOffer(t, m, 3)
	assert.NotEmpty(t, offer.ID)
	assert.Equal(t, models.OfferActive, offer.Status)
	assert.Empty(t, offer.Participants)

	got, err := m.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprzatanie parku", got.Title)
	assert.Equal(t, "org-1", got.OrganizationID)

	_, err = m.Create(ctx, testOrg, models.CreateOfferRequest{Title: "  ", MaxParticipants: 2})
	assert.ErrorIs(t, err, apperr.ErrInvalidOffer)
	_, err = m.Create(ctx, testOrg, models.CreateOfferRequest{Title: "x", MaxParticipants: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidOffer)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestJoin(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	offer := createOffer(t, m, 2)

	joined, err := m.Join(ctx, offer.ID, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, joined.Participants)
	assert.Equal(t, 1, joined.CurrentParticipants)

	_, err = m.Join(ctx, offer.ID, "v1")
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)

	_, err = m.Join(ctx, offer.ID, "v2")
	require.NoError(t, err)

	full, err := m.Join(ctx, offer.ID, "v3")
	assert.ErrorIs(t, err, apperr.ErrFull)
	require.NotNil(t, full)
	assert.Equal(t, 2, full.CurrentParticipants)

	_, err = m.Join(ctx, "missing", "v1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, err := m.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, stored.Participants)
	assert.Equal(t, 2, stored.CurrentParticipants)
}

func TestLeave(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	offer := createOffer(t, m, 2)

	released, err := m.Leave(ctx, offer.ID, "v1")
	require.NoError(t, err)
	assert.False(t, released)

	_, err = m.Join(ctx, offer.ID, "v1")
	require.NoError(t, err)

	released, err = m.Leave(ctx, offer.ID, "v1")
	require.NoError(t, err)
	assert.True(t, released)

	member, err := m.IsMember(ctx, offer.ID, "v1")
	require.NoError(t, err)
	assert.False(t, member)

	stored, err := m.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Participants)
	assert.Equal(t, 0, stored.CurrentParticipants)

	_, err = m.Leave(ctx, "missing", "v1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestJoinConcurrentRespectsCapacity(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	offer := createOffer(t, m, 3)

	const volunteers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		joined  int
		full    int
		unknown []error
	)
	for i := 0; i < volunteers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Join(ctx, offer.ID, fmt.Sprintf("v%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, apperr.ErrFull):
				full++
			default:
				unknown = append(unknown, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 3, joined)
	assert.Equal(t, volunteers-3, full)

	stored, err := m.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 3)
	assert.Equal(t, len(stored.Participants), stored.CurrentParticipants)
}

func TestSetStatus(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	offer := createOffer(t, m, 2)
	_, err := m.Join(ctx, offer.ID, "v1")
	require.NoError(t, err)

	updated, err := m.SetStatus(ctx, testOrg, offer.ID, models.OfferCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OfferCompleted, updated.Status)

	// Archived offers keep their roster
	stored, err := m.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, stored.Participants)

	_, err = m.SetStatus(ctx, testOrg, offer.ID, "archived")
	assert.ErrorIs(t, err, apperr.ErrInvalidStatus)

	_, err = m.SetStatus(ctx, Organization{ID: "org-2"}, offer.ID, models.OfferActive)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	active, err := m.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	mine, err := m.ListJoined(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestJoinStoreUnavailable(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	offer := createOffer(t, m, 2)

	store.SetFault(func(op, collection, id string) error {
		if op == db.OpUpdateIfVersion {
			return apperr.ErrStoreUnavailable
		}
		return nil
	})
	joined, err := m.Join(ctx, offer.ID, "v1")
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.Nil(t, joined)

	store.SetFault(nil)
	member, err := m.IsMember(ctx, offer.ID, "v1")
	require.NoError(t, err)
	assert.False(t, member)
}
