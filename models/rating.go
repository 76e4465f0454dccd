package models

import "time"

// RatingComment is a single rating left on a volunteer's profile
type RatingComment struct {
	AuthorID     string    `bson:"authorId" json:"authorId"`
	AuthorName   string    `bson:"authorName" json:"authorName"`
	AuthorBadges []string  `bson:"authorBadges" json:"authorBadges"`
	Rating       int       `bson:"rating" json:"rating"`
	Comment      string    `bson:"comment" json:"comment"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// RatingRecord is the aggregate rating of a volunteer
type RatingRecord struct {
	VolunteerID   string          `json:"volunteerId"`
	AverageRating float64         `json:"averageRating"`
	TotalRatings  int             `json:"totalRatings"`
	Comments      []RatingComment `json:"comments"`
}

// AddRatingRequest is the payload for rating a volunteer
type AddRatingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
