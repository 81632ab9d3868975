package domain

import "time"

// Review is one piece of feedback handed to the analyzer.
type Review struct {
	Content    string    `json:"content"`
	Rating     *float64  `json:"rating,omitempty"` // 1..5, optional
	Date       time.Time `json:"date"`
	ReviewerID string    `json:"reviewerId"`
}

// StoredReview is a review row as persisted by the submission flow.
type StoredReview struct {
	ReviewID       string    `json:"reviewId"`
	ReviewerUserID string    `json:"reviewerUserId"`
	ReviewedUserID string    `json:"reviewedUserId"`
	SkillID        string    `json:"skillId"`
	Rating         int       `json:"rating"`
	Comment        *string   `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewReview is the submission payload.
type NewReview struct {
	ReviewerUserID string  `json:"reviewerUserId"`
	ReviewedUserID string  `json:"reviewedUserId"`
	SkillID        string  `json:"skillId"`
	Rating         int     `json:"rating"`
	Comment        *string `json:"comment,omitempty"`
}

type PageQuery struct {
	Limit  int
	Cursor *string
	Sort   string
}

type ReviewsPage struct {
	Items      []StoredReview `json:"items"`
	NextCursor *string        `json:"nextCursor,omitempty"`
}
