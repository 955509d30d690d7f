package service

import (
	"context"
	"time"

	"github.com/testimonialnudger/api/internal/domain"
	"github.com/testimonialnudger/api/internal/platform/media"
	"github.com/testimonialnudger/api/internal/repo/postgres"
	"github.com/testimonialnudger/api/pkg/events"
	"github.com/testimonialnudger/api/pkg/logger"
)

// TestimonialService covers the business-side review actions: listing,
// status transitions and deletion. Submission never goes through here.
type TestimonialService interface {
	List(ctx context.Context, businessID int64, f domain.TestimonialFilter, limit, offset int) ([]domain.Testimonial, error)
	// Review applies a status transition; returns (nil, nil) when the
	// testimonial does not exist or does not belong to the business.
	Review(ctx context.Context, id, businessID int64, to domain.TestimonialStatus) (*domain.Testimonial, error)
	// Delete removes a testimonial and best-effort destroys its media.
	Delete(ctx context.Context, id, businessID int64) (bool, error)
}

// ErrBadTransition reports a status change outside the transition table.
type ErrBadTransition struct {
	From, To domain.TestimonialStatus
}

func (e *ErrBadTransition) Error() string {
	return "cannot transition testimonial from " + string(e.From) + " to " + string(e.To)
}

type testimonialService struct {
	testimonials postgres.TestimonialRepo
	mediaStore   media.Store
	bus          events.Publisher
}

func NewTestimonialService(testimonials postgres.TestimonialRepo, mediaStore media.Store, bus events.Publisher) TestimonialService {
	return &testimonialService{
		testimonials: testimonials,
		mediaStore:   mediaStore,
		bus:          bus,
	}
}

func (s *testimonialService) List(ctx context.Context, businessID int64, f domain.TestimonialFilter, limit, offset int) ([]domain.Testimonial, error) {
	ts, err := s.testimonials.ListByBusiness(ctx, businessID, f, limit, offset)
	if err != nil {
		return nil, &StorageError{Op: "testimonial list", Err: err}
	}
	return ts, nil
}

func (s *testimonialService) Review(ctx context.Context, id, businessID int64, to domain.TestimonialStatus) (*domain.Testimonial, error) {
	current, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "testimonial lookup", Err: err}
	}
	if current == nil || current.BusinessID != businessID {
		return nil, nil
	}

	if !domain.CanTransition(current.Status, to) {
		return nil, &ErrBadTransition{From: current.Status, To: to}
	}

	updated, err := s.testimonials.UpdateStatus(ctx, id, businessID, to)
	if err != nil {
		return nil, &StorageError{Op: "testimonial update", Err: err}
	}
	return updated, nil
}

func (s *testimonialService) Delete(ctx context.Context, id, businessID int64) (bool, error) {
	mediaURLs, found, err := s.testimonials.Delete(ctx, id, businessID)
	if err != nil {
		return false, &StorageError{Op: "testimonial delete", Err: err}
	}
	if !found {
		return false, nil
	}

	for _, url := range mediaURLs {
		dCtx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		if err := s.mediaStore.Destroy(dCtx, url); err != nil {
			logger.WarnContext(ctx, "Failed to destroy media asset", "url", url, "error", err)
		}
		cancel()
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.TestimonialDeleted, events.TestimonialDeletedEvent{
			TestimonialID: id,
			BusinessID:    businessID,
			DeletedAt:     time.Now(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish testimonial deleted event", "error", err)
		}
	}
	return true, nil
}
