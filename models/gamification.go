package models

import (
	"time"
)

// BadgeCategory groups badges in the UI
type BadgeCategory string

const (
	CategoryHours    BadgeCategory = "hours"
	CategoryProjects BadgeCategory = "projects"
	CategoryStreak   BadgeCategory = "streak"
	CategorySpecial  BadgeCategory = "special"
	CategoryImpact   BadgeCategory = "impact"
)

// BadgeMetric names the volunteer statistic a badge threshold is compared with
type BadgeMetric string

const (
	MetricNone         BadgeMetric = ""
	MetricHours        BadgeMetric = "hours"
	MetricProjects     BadgeMetric = "completedProjects"
	MetricStreak       BadgeMetric = "currentStreak"
	MetricImpactPoints BadgeMetric = "impactPoints"
)

// Badge is an entry of the fixed badge catalog
type Badge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Category    BadgeCategory `json:"category"`
	Metric      BadgeMetric   `json:"metric,omitempty"`
	Requirement int           `json:"requirement"`
}

// BadgeState is the per-volunteer unlock state of a catalog badge
type BadgeState struct {
	BadgeID    string     `bson:"badgeId" json:"badgeId"`
	Earned     bool       `bson:"earned" json:"earned"`
	EarnedDate *time.Time `bson:"earnedDate,omitempty" json:"earnedDate,omitempty"`
}

// BadgeView is what the UI renders for one badge
type BadgeView struct {
	Badge
	Earned          bool       `json:"earned"`
	EarnedDate      *time.Time `json:"earnedDate,omitempty"`
	CurrentProgress int        `json:"currentProgress"`
}

// Gamification event types
const (
	EventBadgeUnlocked     = "badge_unlocked"
	EventRatingAdded       = "rating_added"
	EventEnrollmentChanged = "enrollment_changed"
)

// GamificationEvent represents a gamification event to broadcast via WebSocket
// and the event stream
type GamificationEvent struct {
	Type          string    `json:"type"`
	UserID        string    `json:"userId"`
	BadgeID       string    `json:"badgeId,omitempty"`
	BadgeName     string    `json:"badgeName,omitempty"`
	OfferID       string    `json:"offerId,omitempty"`
	State         string    `json:"state,omitempty"`
	Rating        int       `json:"rating,omitempty"`
	AverageRating float64   `json:"averageRating,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
