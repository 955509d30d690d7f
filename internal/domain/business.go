package domain

import "time"

type Business struct {
	ID          int64
	Name        string
	OwnerEmail  string
	LogoURL     string
	ServiceType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BusinessPublic is the subset of business fields safe to expose on the
// unauthenticated form endpoints.
type BusinessPublic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	LogoURL     string `json:"logo_url,omitempty"`
	ServiceType string `json:"service_type,omitempty"`
}

func (b *Business) Public() BusinessPublic {
	return BusinessPublic{
		ID:          b.ID,
		Name:        b.Name,
		LogoURL:     b.LogoURL,
		ServiceType: b.ServiceType,
	}
}
