package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/testimonialnudger/api/internal/domain"
	"github.com/testimonialnudger/api/internal/platform/mailer"
	"github.com/testimonialnudger/api/internal/platform/media"
	"github.com/testimonialnudger/api/internal/repo/postgres"
	"github.com/testimonialnudger/api/internal/utils"
	"github.com/testimonialnudger/api/pkg/config"
	"github.com/testimonialnudger/api/pkg/events"
	"github.com/testimonialnudger/api/pkg/logger"
)

const (
	maxContentLength  = 1000
	maxMediaPerSubmit = 5
	sideEffectTimeout = 5 * time.Second
)

// SubmissionService runs the token redemption state machine: validate the
// token, resolve the client identity, stage media, persist the testimonial
// while consuming the token, link aggregates and fire best-effort
// notifications.
type SubmissionService interface {
	ResolveToken(ctx context.Context, token string) (*domain.TokenResolveResponse, error)
	Submit(ctx context.Context, token string, in *domain.SubmissionInput) (*domain.Testimonial, error)
}

type submissionService struct {
	tokens       postgres.TokenRepo
	clients      postgres.ClientRepo
	testimonials postgres.TestimonialRepo
	businesses   postgres.BusinessRepo
	mediaStore   media.Store
	mail         mailer.Service
	bus          events.Publisher
	cfg          *config.Config

	// businessCache caches public business display data for the form lookup,
	// which is hit unauthenticated on every form load.
	businessCache *expirable.LRU[int64, domain.BusinessPublic]
}

func NewSubmissionService(
	tokens postgres.TokenRepo,
	clients postgres.ClientRepo,
	testimonials postgres.TestimonialRepo,
	businesses postgres.BusinessRepo,
	mediaStore media.Store,
	mail mailer.Service,
	bus events.Publisher,
	cfg *config.Config,
) SubmissionService {
	return &submissionService{
		tokens:        tokens,
		clients:       clients,
		testimonials:  testimonials,
		businesses:    businesses,
		mediaStore:    mediaStore,
		mail:          mail,
		bus:           bus,
		cfg:           cfg,
		businessCache: expirable.NewLRU[int64, domain.BusinessPublic](256, nil, 5*time.Minute),
	}
}

func (s *submissionService) ResolveToken(ctx context.Context, token string) (*domain.TokenResolveResponse, error) {
	tok, err := s.tokens.FindRedeemable(ctx, token)
	if err != nil {
		return nil, &StorageError{Op: "token lookup", Err: err}
	}
	if tok == nil {
		return nil, ErrInvalidToken
	}

	biz, err := s.businessPublic(ctx, tok.BusinessID)
	if err != nil {
		return nil, err
	}

	// When the request was issued without a name, fall back to the identity a
	// previous submission established for this email. A lookup failure just
	// loses the prefill.
	prefillName := tok.ClientName
	if prefillName == "" {
		if client, err := s.clients.FindByEmail(ctx, tok.ClientEmail); err != nil {
			logger.WarnContext(ctx, "Client prefill lookup failed",
				"client_email", tok.ClientEmail, "error", err)
		} else if client != nil {
			prefillName = client.Name
		}
	}

	return &domain.TokenResolveResponse{
		Business: biz,
		Token: domain.TokenPrefill{
			ClientName:  prefillName,
			ClientEmail: tok.ClientEmail,
			ServiceType: tok.ServiceType,
		},
	}, nil
}

func (s *submissionService) businessPublic(ctx context.Context, id int64) (domain.BusinessPublic, error) {
	if cached, ok := s.businessCache.Get(id); ok {
		return cached, nil
	}

	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return domain.BusinessPublic{}, &StorageError{Op: "business lookup", Err: err}
	}
	if b == nil {
		// A token whose business is gone is as dead as an expired one.
		return domain.BusinessPublic{}, ErrInvalidToken
	}

	pub := b.Public()
	s.businessCache.Add(id, pub)
	return pub, nil
}

func (s *submissionService) Submit(ctx context.Context, token string, in *domain.SubmissionInput) (*domain.Testimonial, error) {
	if err := validateSubmission(in); err != nil {
		return nil, err
	}

	// The token is the sole authority for which business and client email the
	// testimonial belongs to; nothing in the payload can override it.
	tok, err := s.tokens.FindRedeemable(ctx, token)
	if err != nil {
		return nil, &StorageError{Op: "token lookup", Err: err}
	}
	if tok == nil {
		return nil, ErrInvalidToken
	}

	biz, err := s.businesses.GetByID(ctx, tok.BusinessID)
	if err != nil {
		return nil, &StorageError{Op: "business lookup", Err: err}
	}
	if biz == nil {
		return nil, ErrInvalidToken
	}

	client, err := s.clients.Resolve(ctx, tok.ClientEmail, in.ClientName, in.ClientRole)
	if err != nil {
		return nil, &StorageError{Op: "client resolve", Err: err}
	}

	mediaURLs := s.stageMedia(ctx, biz.ID, in.Media)

	status := domain.StatusPrivate
	if in.AllowPublishing {
		status = domain.StatusPending
	}

	created, err := s.testimonials.CreateWithToken(ctx, &domain.Testimonial{
		Content:    in.Content,
		Rating:     in.Rating,
		Status:     status,
		BusinessID: biz.ID,
		ClientID:   client.ID,
		MediaURLs:  mediaURLs,
	}, token)
	if errors.Is(err, postgres.ErrTokenSpent) {
		// Lost the race after validation; the insert was rolled back.
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, &StorageError{Op: "testimonial create", Err: err}
	}

	s.linkAggregates(ctx, created)
	s.notify(ctx, biz, tok, created, in)

	return created, nil
}

func validateSubmission(in *domain.SubmissionInput) error {
	in.Content = utils.NormalizeString(in.Content)
	in.ClientName = utils.NormalizeString(in.ClientName)
	in.RecommenderEmail = utils.NormalizeEmail(in.RecommenderEmail)

	if in.Content == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if len(in.Content) > maxContentLength {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("must be at most %d characters", maxContentLength)}
	}
	if in.Rating < 1 || in.Rating > 5 {
		return &ValidationError{Field: "rating", Reason: "must be an integer between 1 and 5"}
	}
	if in.ClientName == "" {
		return &ValidationError{Field: "client_name", Reason: "must not be empty"}
	}
	if len(in.Media) > maxMediaPerSubmit {
		return &ValidationError{Field: "media", Reason: fmt.Sprintf("at most %d files", maxMediaPerSubmit)}
	}
	return nil
}

// stageMedia uploads supported files concurrently. Unsupported types are
// skipped and individual upload failures drop just that file; the submission
// never fails on media.
func (s *submissionService) stageMedia(ctx context.Context, businessID int64, files []domain.MediaFile) []string {
	if len(files) == 0 {
		return nil
	}

	folder := fmt.Sprintf("%s/%d", s.cfg.Media.Folder, businessID)
	staged := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i, f := range files {
		if !media.SupportedType(f.ContentType) {
			logger.InfoContext(ctx, "Skipping unsupported media type",
				"filename", f.Filename, "content_type", f.ContentType)
			continue
		}

		i, f := i, f
		g.Go(func() error {
			upCtx, cancel := context.WithTimeout(gctx, sideEffectTimeout)
			defer cancel()

			url, err := s.mediaStore.Upload(upCtx, f, folder)
			if err != nil {
				logger.WarnContext(ctx, "Media upload failed, dropping file",
					"filename", f.Filename, "error", err)
				return nil
			}
			staged[i] = url
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; they log and drop

	urls := make([]string, 0, len(files))
	for _, u := range staged {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// linkAggregates appends denormalized back-references on both owners.
// Failure is logged and absorbed: the testimonial is already durable.
func (s *submissionService) linkAggregates(ctx context.Context, t *domain.Testimonial) {
	if err := s.businesses.LinkTestimonial(ctx, t.BusinessID, t.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to link testimonial to business",
			"testimonial_id", t.ID, "business_id", t.BusinessID, "error", err)
	}
	if err := s.clients.LinkTestimonial(ctx, t.ClientID, t.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to link testimonial to client",
			"testimonial_id", t.ID, "client_id", t.ClientID, "error", err)
	}
}

// notify fires the best-effort side effects: thank-you mail to a distinct
// recommender and domain events. Failures are logged, never surfaced.
func (s *submissionService) notify(ctx context.Context, biz *domain.Business, tok *domain.RequestToken, t *domain.Testimonial, in *domain.SubmissionInput) {
	if in.RecommenderEmail != "" && in.RecommenderEmail != tok.ClientEmail {
		if err := s.mail.SendThankYou(in.RecommenderEmail, in.RecommenderName, biz.Name, in.ClientName, in.PersonalNote); err != nil {
			logger.WarnContext(ctx, "Thank-you email failed",
				"recommender", in.RecommenderEmail, "error", err)
		}
	}

	if s.bus == nil {
		return
	}

	if err := s.bus.Publish(ctx, events.TestimonialCreated, events.TestimonialCreatedEvent{
		TestimonialID: t.ID,
		BusinessID:    t.BusinessID,
		ClientEmail:   tok.ClientEmail,
		Rating:        t.Rating,
		Status:        string(t.Status),
		MediaCount:    len(t.MediaURLs),
		CreatedAt:     t.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish testimonial created event",
			"testimonial_id", t.ID, "error", err)
	}

	if err := s.bus.Publish(ctx, events.RequestCompleted, events.RequestCompletedEvent{
		BusinessID:    t.BusinessID,
		ClientEmail:   tok.ClientEmail,
		TestimonialID: t.ID,
		CompletedAt:   time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish request completed event",
			"testimonial_id", t.ID, "error", err)
	}
}
