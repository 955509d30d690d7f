package service

import (
	"context"
	"fmt"
	"time"

	"github.com/testimonialnudger/api/internal/domain"
	"github.com/testimonialnudger/api/internal/platform/mailer"
	"github.com/testimonialnudger/api/internal/repo/postgres"
	"github.com/testimonialnudger/api/internal/utils"
	"github.com/testimonialnudger/api/pkg/config"
	"github.com/testimonialnudger/api/pkg/events"
	"github.com/testimonialnudger/api/pkg/logger"
)

// RequestService issues testimonial request tokens and emails clients their
// form link.
type RequestService interface {
	Issue(ctx context.Context, businessID int64, in *domain.RequestIssueInput) (*domain.RequestIssueResponse, error)
}

type requestService struct {
	tokens     postgres.TokenRepo
	businesses postgres.BusinessRepo
	mail       mailer.Service
	bus        events.Publisher
	cfg        *config.Config
}

func NewRequestService(
	tokens postgres.TokenRepo,
	businesses postgres.BusinessRepo,
	mail mailer.Service,
	bus events.Publisher,
	cfg *config.Config,
) RequestService {
	return &requestService{
		tokens:     tokens,
		businesses: businesses,
		mail:       mail,
		bus:        bus,
		cfg:        cfg,
	}
}

func (s *requestService) Issue(ctx context.Context, businessID int64, in *domain.RequestIssueInput) (*domain.RequestIssueResponse, error) {
	in.ClientName = utils.NormalizeString(in.ClientName)
	in.ClientEmail = utils.NormalizeEmail(in.ClientEmail)
	in.ServiceType = utils.NormalizeString(in.ServiceType)

	if in.ClientName == "" {
		return nil, &ValidationError{Field: "client_name", Reason: "must not be empty"}
	}
	if !utils.IsValidEmail(in.ClientEmail) {
		return nil, &ValidationError{Field: "client_email", Reason: "must be a valid email"}
	}
	if in.ServiceType == "" {
		return nil, &ValidationError{Field: "service_type", Reason: "must not be empty"}
	}

	biz, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, &StorageError{Op: "business lookup", Err: err}
	}
	if biz == nil {
		return nil, &ValidationError{Field: "business", Reason: "unknown business"}
	}

	tok, err := s.tokens.Issue(ctx, businessID, in.ClientEmail, in.ClientName, in.ServiceType, s.cfg.Tokens.RequestTTL)
	if err != nil {
		return nil, &StorageError{Op: "token issue", Err: err}
	}

	formLink := fmt.Sprintf("%s/testimonial-form/%s", s.cfg.App.BaseURL, tok.Token)

	// The token is already durable; a mail failure is reported, not fatal.
	emailSent := true
	if err := s.mail.SendTestimonialRequest(in.ClientEmail, in.ClientName, biz.Name, in.ServiceType, formLink); err != nil {
		emailSent = false
		logger.WarnContext(ctx, "Testimonial request email failed",
			"client_email", in.ClientEmail, "business_id", businessID, "error", err)
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.RequestCreated, events.RequestCreatedEvent{
			BusinessID:  businessID,
			ClientEmail: in.ClientEmail,
			ClientName:  in.ClientName,
			ServiceType: in.ServiceType,
			ExpiresAt:   tok.ExpiresAt,
			CreatedAt:   time.Now(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish request created event", "error", err)
		}
	}

	return &domain.RequestIssueResponse{
		Token:     tok.Token,
		FormLink:  formLink,
		ExpiresAt: tok.ExpiresAt,
		EmailSent: emailSent,
	}, nil
}
