package badges

import (
	"testing"
	"time"

	"wolontariat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateFor(t *testing.T, states []models.BadgeState, id string) models.BadgeState {
	t.Helper()
	for _, s := range states {
		if s.BadgeID == id {
			return s
		}
	}
	t.Fatalf("no state for badge %s", id)
	return models.BadgeState{}
}

func viewFor(t *testing.T, views []models.BadgeView, id string) models.BadgeView {
	t.Helper()
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("no view for badge %s", id)
	return models.BadgeView{}
}

func TestTwelveHours(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	stats := models.VolunteerStats{Hours: 12}

	states, unlocked := Evaluate(stats, nil, now)

	ids := make([]string, 0, len(unlocked))
	for _, b := range unlocked {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{"pierwszyKrok", "zaangazowany"}, ids)
	assert.True(t, stateFor(t, states, "pierwszyKrok").Earned)
	assert.True(t, stateFor(t, states, "zaangazowany").Earned)
	assert.False(t, stateFor(t, states, "wytrwaly").Earned)
	assert.False(t, stateFor(t, states, WelcomeBadgeID).Earned)

	views := View(stats, states)
	wytrwaly := viewFor(t, views, "wytrwaly")
	assert.Equal(t, 12, wytrwaly.CurrentProgress)
	assert.Equal(t, 10, viewFor(t, views, "zaangazowany").CurrentProgress)
	assert.Equal(t, 0, viewFor(t, views, "tydzien").CurrentProgress)
}

func TestEvaluateIdempotent(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := models.VolunteerStats{Hours: 60, CompletedProjects: 5, CurrentStreak: 8, ImpactPoints: 120}

	once, unlocked := Evaluate(stats, nil, first)
	require.NotEmpty(t, unlocked)

	twice, again := Evaluate(stats, once, first.Add(time.Hour))
	assert.Empty(t, again)
	assert.Equal(t, once, twice)
	assert.False(t, Changed(once, twice))
}

func TestEvaluateMonotonic(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	states, _ := Evaluate(models.VolunteerStats{Hours: 55, CurrentStreak: 7}, nil, first)

	// A correction lowers the stats; nothing is lost
	later := first.Add(48 * time.Hour)
	corrected, unlocked := Evaluate(models.VolunteerStats{Hours: 3, CurrentStreak: 0}, states, later)
	assert.Empty(t, unlocked)

	wytrwaly := stateFor(t, corrected, "wytrwaly")
	assert.True(t, wytrwaly.Earned)
	require.NotNil(t, wytrwaly.EarnedDate)
	assert.True(t, first.Equal(*wytrwaly.EarnedDate))
	assert.True(t, stateFor(t, corrected, "tydzien").Earned)
}

func TestEvaluateSetsDateOnFirstCrossing(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	states, _ := Evaluate(models.VolunteerStats{CompletedProjects: 4}, nil, t0)
	assert.False(t, stateFor(t, states, "aktywista").Earned)
	assert.Nil(t, stateFor(t, states, "aktywista").EarnedDate)

	t1 := t0.Add(24 * time.Hour)
	states, unlocked := Evaluate(models.VolunteerStats{CompletedProjects: 5}, states, t1)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "aktywista", unlocked[0].ID)
	date := stateFor(t, states, "aktywista").EarnedDate
	require.NotNil(t, date)
	assert.True(t, t1.Equal(*date))
}

func TestWelcomeOnlyFromRegistration(t *testing.T) {
	now := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	huge := models.VolunteerStats{Hours: 1000, CompletedProjects: 100, CurrentStreak: 100, ImpactPoints: 5000}
	states, unlocked := Evaluate(huge, nil, now)
	assert.False(t, stateFor(t, states, WelcomeBadgeID).Earned)
	for _, b := range unlocked {
		assert.NotEqual(t, WelcomeBadgeID, b.ID)
	}

	states, unlocked = Evaluate(models.VolunteerStats{}, []models.BadgeState{Welcome(now)}, now.Add(time.Hour))
	assert.Empty(t, unlocked)
	welcome := stateFor(t, states, WelcomeBadgeID)
	assert.True(t, welcome.Earned)
	assert.True(t, now.Equal(*welcome.EarnedDate))
	assert.Equal(t, 1, viewFor(t, View(models.VolunteerStats{}, states), WelcomeBadgeID).CurrentProgress)
}

func TestEvaluateKeepsRetiredEarnedBadges(t *testing.T) {
	now := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	current := []models.BadgeState{
		{BadgeID: "staryBadge", Earned: true, EarnedDate: &now},
		{BadgeID: "porzucony", Earned: false},
	}
	states, _ := Evaluate(models.VolunteerStats{}, current, now)
	assert.Len(t, states, len(Catalog())+1)
	assert.Equal(t, "staryBadge", states[len(states)-1].BadgeID)
}

func TestCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range Catalog() {
		assert.False(t, seen[b.ID], "duplicate badge %s", b.ID)
		seen[b.ID] = true
		assert.Positive(t, b.Requirement)
		if b.ID == WelcomeBadgeID {
			assert.Equal(t, models.MetricNone, b.Metric)
			continue
		}
		assert.NotEqual(t, models.MetricNone, b.Metric, b.ID)
	}
	b, ok := Lookup("bohater")
	require.True(t, ok)
	assert.Equal(t, 100, b.Requirement)
}
