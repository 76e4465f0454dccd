package models

import "time"

// VolunteerStats are the activity counters maintained by the activity tracker
type VolunteerStats struct {
	Hours             int `bson:"hours" json:"volunteerHours"`
	CompletedProjects int `bson:"completedProjects" json:"completedProjects"`
	CurrentStreak     int `bson:"currentStreak" json:"currentStreak"`
	LongestStreak     int `bson:"longestStreak" json:"longestStreak"`
	ImpactPoints      int `bson:"impactPoints" json:"impactPoints"`
}

// Volunteer is the volunteer's own document. Applications, badges and the
// rating record are embedded so that each is updated with a single write.
type Volunteer struct {
	ID            string          `bson:"_id" json:"id"`
	DisplayName   string          `bson:"displayName" json:"displayName"`
	Applications  []Application   `bson:"applications" json:"applications"`
	Stats         VolunteerStats  `bson:"stats" json:"stats"`
	Badges        []BadgeState    `bson:"badges" json:"badges"`
	AverageRating float64         `bson:"averageRating" json:"averageRating"`
	TotalRatings  int             `bson:"totalRatings" json:"totalRatings"`
	Comments      []RatingComment `bson:"comments" json:"comments"`
	Version       int64           `bson:"version" json:"-"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// ApplicationForOffer returns the application the volunteer holds for offerID, if any
func (v *Volunteer) ApplicationForOffer(offerID string) (Application, bool) {
	for _, app := range v.Applications {
		if app.OfferID == offerID {
			return app, true
		}
	}
	return Application{}, false
}

// EarnedBadgeIDs lists the ids of the badges the volunteer has earned
func (v *Volunteer) EarnedBadgeIDs() []string {
	ids := make([]string, 0, len(v.Badges))
	for _, b := range v.Badges {
		if b.Earned {
			ids = append(ids, b.BadgeID)
		}
	}
	return ids
}

// RatingRecord returns the rating view of the volunteer document
func (v *Volunteer) RatingRecord() RatingRecord {
	comments := v.Comments
	if comments == nil {
		comments = []RatingComment{}
	}
	return RatingRecord{
		VolunteerID:   v.ID,
		AverageRating: v.AverageRating,
		TotalRatings:  v.TotalRatings,
		Comments:      comments,
	}
}

// RegisterVolunteerRequest creates the caller's volunteer profile
type RegisterVolunteerRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
}

// UpdateStatsRequest is the activity tracker's stats payload
type UpdateStatsRequest struct {
	Hours             int `json:"volunteerHours" binding:"min=0"`
	CompletedProjects int `json:"completedProjects" binding:"min=0"`
	CurrentStreak     int `json:"currentStreak" binding:"min=0"`
	LongestStreak     int `json:"longestStreak" binding:"min=0"`
	ImpactPoints      int `json:"impactPoints" binding:"min=0"`
}

// Stats converts the request to the stored stats
func (r UpdateStatsRequest) Stats() VolunteerStats {
	return VolunteerStats{
		Hours:             r.Hours,
		CompletedProjects: r.CompletedProjects,
		CurrentStreak:     r.CurrentStreak,
		LongestStreak:     max(r.LongestStreak, r.CurrentStreak),
		ImpactPoints:      r.ImpactPoints,
	}
}
