// Package badges evaluates which catalog badges a volunteer has unlocked.
package badges

import "wolontariat/models"

// WelcomeBadgeID is granted at registration and never by a metric
const WelcomeBadgeID = "witaj"

var catalog = []models.Badge{
	{ID: WelcomeBadgeID, Name: "Witaj!", Description: "Dołączyłeś do społeczności wolontariuszy", Icon: "👋", Category: models.CategorySpecial, Metric: models.MetricNone, Requirement: 1},

	{ID: "pierwszyKrok", Name: "Pierwszy krok", Description: "Przepracuj pierwszą godzinę wolontariatu", Icon: "👣", Category: models.CategoryHours, Metric: models.MetricHours, Requirement: 1},
	{ID: "zaangazowany", Name: "Zaangażowany", Description: "Przepracuj 10 godzin wolontariatu", Icon: "⭐", Category: models.CategoryHours, Metric: models.MetricHours, Requirement: 10},
	{ID: "wytrwaly", Name: "Wytrwały", Description: "Przepracuj 50 godzin wolontariatu", Icon: "💪", Category: models.CategoryHours, Metric: models.MetricHours, Requirement: 50},
	{ID: "bohater", Name: "Bohater", Description: "Przepracuj 100 godzin wolontariatu", Icon: "🦸", Category: models.CategoryHours, Metric: models.MetricHours, Requirement: 100},

	{ID: "pierwszyProjekt", Name: "Pierwszy projekt", Description: "Ukończ pierwszy projekt", Icon: "🎯", Category: models.CategoryProjects, Metric: models.MetricProjects, Requirement: 1},
	{ID: "aktywista", Name: "Aktywista", Description: "Ukończ 5 projektów", Icon: "📣", Category: models.CategoryProjects, Metric: models.MetricProjects, Requirement: 5},
	{ID: "weteran", Name: "Weteran", Description: "Ukończ 20 projektów", Icon: "🏅", Category: models.CategoryProjects, Metric: models.MetricProjects, Requirement: 20},

	{ID: "tydzien", Name: "Tydzień z rzędu", Description: "Działaj 7 dni z rzędu", Icon: "🔥", Category: models.CategoryStreak, Metric: models.MetricStreak, Requirement: 7},
	{ID: "miesiac", Name: "Miesiąc z rzędu", Description: "Działaj 30 dni z rzędu", Icon: "📅", Category: models.CategoryStreak, Metric: models.MetricStreak, Requirement: 30},

	{ID: "pomocnaDlon", Name: "Pomocna dłoń", Description: "Zdobądź 100 punktów wpływu", Icon: "🤝", Category: models.CategoryImpact, Metric: models.MetricImpactPoints, Requirement: 100},
	{ID: "zmieniaczSwiata", Name: "Zmieniacz świata", Description: "Zdobądź 500 punktów wpływu", Icon: "🌍", Category: models.CategoryImpact, Metric: models.MetricImpactPoints, Requirement: 500},
	{ID: "legenda", Name: "Legenda", Description: "Zdobądź 1000 punktów wpływu", Icon: "🏆", Category: models.CategoryImpact, Metric: models.MetricImpactPoints, Requirement: 1000},
}

var byID = func() map[string]models.Badge {
	m := make(map[string]models.Badge, len(catalog))
	for _, b := range catalog {
		m[b.ID] = b
	}
	return m
}()

// Catalog returns a copy of the badge catalog in display order
func Catalog() []models.Badge {
	out := make([]models.Badge, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id
func Lookup(id string) (models.Badge, bool) {
	b, ok := byID[id]
	return b, ok
}

// metricValue reads the statistic a badge is measured against
func metricValue(metric models.BadgeMetric, stats models.VolunteerStats) int {
	switch metric {
	case models.MetricHours:
		return stats.Hours
	case models.MetricProjects:
		return stats.CompletedProjects
	case models.MetricStreak:
		return stats.CurrentStreak
	case models.MetricImpactPoints:
		return stats.ImpactPoints
	}
	return 0
}
