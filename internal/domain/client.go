package domain

import "time"

// ClientIdentity is the stable record for a person giving testimonials,
// keyed by lowercase email. One identity may span many businesses.
type ClientIdentity struct {
	ID        int64
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
