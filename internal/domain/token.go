package domain

import "time"

// RequestToken is a single-use, time-limited credential permitting one
// testimonial submission on behalf of a specific business/client email pair.
type RequestToken struct {
	ID          int64
	Token       string
	BusinessID  int64
	ClientEmail string
	ClientName  string
	ServiceType string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Used reports whether the token has already been redeemed.
func (t *RequestToken) Used() bool {
	return t.UsedAt != nil
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RequestToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenResolveResponse is returned by the public token lookup consumed by the
// submission form. It carries the business display data and any pre-filled
// client fields from the request.
type TokenResolveResponse struct {
	Business BusinessPublic `json:"business"`
	Token    TokenPrefill   `json:"token"`
}

type TokenPrefill struct {
	ClientName  string `json:"client_name,omitempty"`
	ClientEmail string `json:"client_email"`
	ServiceType string `json:"service_type,omitempty"`
}
