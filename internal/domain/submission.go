package domain

import "time"

// MediaFile is one uploaded form part, read into memory before staging.
type MediaFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmissionInput is the parsed multipart payload of the public submission
// endpoint. The business and client email are deliberately absent: both are
// derived from the redeemed token, never from the form.
type SubmissionInput struct {
	Content         string
	Rating          int
	ClientName      string
	ClientRole      string
	AllowPublishing bool
	PersonalNote    string
	Media           []MediaFile

	// Optional third party who referred the client; thanked by email.
	RecommenderEmail string
	RecommenderName  string
}

// RequestIssueInput is the business-side payload for issuing a testimonial
// request token.
type RequestIssueInput struct {
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ServiceType string `json:"service_type"`
}

type RequestIssueResponse struct {
	Token     string    `json:"token"`
	FormLink  string    `json:"form_link"`
	ExpiresAt time.Time `json:"expires_at"`
	EmailSent bool      `json:"email_sent"`
}
