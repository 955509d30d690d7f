package domain

import "time"

type TestimonialStatus string

const (
	// StatusPrivate marks a submission whose author declined publication.
	StatusPrivate TestimonialStatus = "PRIVATE"
	// StatusPending marks a submission awaiting business review.
	StatusPending  TestimonialStatus = "PENDING"
	StatusApproved TestimonialStatus = "APPROVED"
	StatusFlagged  TestimonialStatus = "FLAGGED"
	StatusArchived TestimonialStatus = "ARCHIVED"
)

func ParseTestimonialStatus(s string) (TestimonialStatus, bool) {
	switch TestimonialStatus(s) {
	case StatusPrivate, StatusPending, StatusApproved, StatusFlagged, StatusArchived:
		return TestimonialStatus(s), true
	default:
		return "", false
	}
}

// statusTransitions is the exhaustive review-side transition table. Submission
// only ever assigns PENDING or PRIVATE; everything after that goes through
// CanTransition.
var statusTransitions = map[TestimonialStatus][]TestimonialStatus{
	StatusPending:  {StatusApproved, StatusFlagged, StatusArchived},
	StatusApproved: {StatusFlagged, StatusArchived},
	StatusFlagged:  {StatusApproved, StatusArchived},
	StatusArchived: {},
	StatusPrivate:  {},
}

func CanTransition(from, to TestimonialStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Testimonial struct {
	ID         int64             `json:"id"`
	Content    string            `json:"content"`
	Rating     int               `json:"rating"`
	Status     TestimonialStatus `json:"status"`
	BusinessID int64             `json:"business_id"`
	ClientID   int64             `json:"client_id"`
	MediaURLs  []string          `json:"media_urls"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// TestimonialFilter narrows business-side listings.
type TestimonialFilter struct {
	Status    *TestimonialStatus
	MinRating int
}
