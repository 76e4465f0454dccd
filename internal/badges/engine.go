package badges

import (
	"time"

	"wolontariat/models"
)

// Evaluate computes the badge states for stats on top of current. It has no
// side effects and is idempotent: an earned badge stays earned with its
// original date, and earnedDate is set to now only on the first crossing.
// The welcome badge is carried over as is. States for ids no longer in the
// catalog are kept at the end if they were earned.
//
// The second result lists the badges unlocked by this evaluation.
func Evaluate(stats models.VolunteerStats, current []models.BadgeState, now time.Time) ([]models.BadgeState, []models.Badge) {
	previous := make(map[string]models.BadgeState, len(current))
	for _, s := range current {
		if prev, ok := previous[s.BadgeID]; ok && prev.Earned {
			continue
		}
		previous[s.BadgeID] = s
	}

	next := make([]models.BadgeState, 0, len(catalog))
	var unlocked []models.Badge
	for _, badge := range catalog {
		prev, had := previous[badge.ID]
		delete(previous, badge.ID)

		switch {
		case had && prev.Earned:
			next = append(next, prev)
		case badge.Metric == models.MetricNone:
			next = append(next, models.BadgeState{BadgeID: badge.ID})
		case metricValue(badge.Metric, stats) >= badge.Requirement:
			earnedAt := now
			next = append(next, models.BadgeState{BadgeID: badge.ID, Earned: true, EarnedDate: &earnedAt})
			unlocked = append(unlocked, badge)
		default:
			next = append(next, models.BadgeState{BadgeID: badge.ID})
		}
	}

	for _, s := range current {
		if rest, ok := previous[s.BadgeID]; ok && rest.Earned {
			next = append(next, rest)
			delete(previous, s.BadgeID)
		}
	}
	return next, unlocked
}

// Welcome returns the state of the welcome badge granted at registration
func Welcome(now time.Time) models.BadgeState {
	return models.BadgeState{BadgeID: WelcomeBadgeID, Earned: true, EarnedDate: &now}
}

// Progress is the value shown on a badge, never above its requirement
func Progress(badge models.Badge, stats models.VolunteerStats) int {
	return min(metricValue(badge.Metric, stats), badge.Requirement)
}

// View joins the catalog with a volunteer's states and progress
func View(stats models.VolunteerStats, states []models.BadgeState) []models.BadgeView {
	byBadge := make(map[string]models.BadgeState, len(states))
	for _, s := range states {
		byBadge[s.BadgeID] = s
	}

	views := make([]models.BadgeView, 0, len(catalog))
	for _, badge := range catalog {
		state := byBadge[badge.ID]
		view := models.BadgeView{
			Badge:           badge,
			Earned:          state.Earned,
			EarnedDate:      state.EarnedDate,
			CurrentProgress: Progress(badge, stats),
		}
		if state.Earned {
			view.CurrentProgress = badge.Requirement
		}
		views = append(views, view)
	}
	return views
}

// Changed reports whether next differs from current in anything that must be stored
func Changed(current, next []models.BadgeState) bool {
	if len(current) != len(next) {
		return true
	}
	for i := range current {
		if current[i].BadgeID != next[i].BadgeID || current[i].Earned != next[i].Earned {
			return true
		}
	}
	return false
}
