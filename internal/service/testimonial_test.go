package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testimonialnudger/api/internal/domain"
	"github.com/testimonialnudger/api/internal/service"
)

func newReviewFixture() (*fixture, service.TestimonialService) {
	f := newFixture()
	svc := service.NewTestimonialService(f.testimonials, f.media, nil)
	return f, svc
}

func (f *fixture) seedTestimonial(status domain.TestimonialStatus, mediaURLs ...string) *domain.Testimonial {
	f.testimonials.mu.Lock()
	defer f.testimonials.mu.Unlock()

	f.testimonials.nextID++
	t := &domain.Testimonial{
		ID:         f.testimonials.nextID,
		Content:    "seed",
		Rating:     4,
		Status:     status,
		BusinessID: 1,
		ClientID:   1,
		MediaURLs:  mediaURLs,
		CreatedAt:  time.Now(),
	}
	f.testimonials.testimonials[t.ID] = t
	return t
}

func TestReviewTransitions(t *testing.T) {
	cases := []struct {
		from    domain.TestimonialStatus
		to      domain.TestimonialStatus
		allowed bool
	}{
		{domain.StatusPending, domain.StatusApproved, true},
		{domain.StatusPending, domain.StatusFlagged, true},
		{domain.StatusPending, domain.StatusArchived, true},
		{domain.StatusApproved, domain.StatusFlagged, true},
		{domain.StatusApproved, domain.StatusArchived, true},
		{domain.StatusFlagged, domain.StatusApproved, true},
		{domain.StatusFlagged, domain.StatusArchived, true},
		{domain.StatusApproved, domain.StatusPending, false},
		{domain.StatusArchived, domain.StatusApproved, false},
		{domain.StatusPrivate, domain.StatusApproved, false},
		{domain.StatusPrivate, domain.StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			f, svc := newReviewFixture()
			seed := f.seedTestimonial(tc.from)

			updated, err := svc.Review(context.Background(), seed.ID, 1, tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("review: %v", err)
				}
				if updated.Status != tc.to {
					t.Errorf("status = %s, want %s", updated.Status, tc.to)
				}
				return
			}

			var bad *service.ErrBadTransition
			if !errors.As(err, &bad) {
				t.Fatalf("err = %v, want ErrBadTransition", err)
			}
		})
	}
}

func TestReviewOwnership(t *testing.T) {
	f, svc := newReviewFixture()
	seed := f.seedTestimonial(domain.StatusPending)

	// Another business must see the testimonial as not found, not forbidden.
	updated, err := svc.Review(context.Background(), seed.ID, 42, domain.StatusApproved)
	if err != nil || updated != nil {
		t.Fatalf("got (%v, %v), want (nil, nil) for foreign business", updated, err)
	}

	updated, err = svc.Review(context.Background(), 999, 1, domain.StatusApproved)
	if err != nil || updated != nil {
		t.Fatalf("got (%v, %v), want (nil, nil) for missing id", updated, err)
	}
}

func TestDeleteTestimonial(t *testing.T) {
	f, svc := newReviewFixture()
	seed := f.seedTestimonial(domain.StatusApproved,
		"https://cdn.test/testimonials/1/a.png",
		"https://cdn.test/testimonials/1/b.png",
	)

	found, err := svc.Delete(context.Background(), seed.ID, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatal("delete reported not found")
	}

	if got, _ := f.testimonials.GetByID(context.Background(), seed.ID); got != nil {
		t.Error("testimonial still present after delete")
	}
	if len(f.media.destroyed) != 2 {
		t.Errorf("destroyed %d media assets, want 2", len(f.media.destroyed))
	}
}

func TestDeleteTestimonialNotFound(t *testing.T) {
	f, svc := newReviewFixture()
	seed := f.seedTestimonial(domain.StatusApproved)

	found, err := svc.Delete(context.Background(), seed.ID, 42)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if found {
		t.Error("foreign business deleted a testimonial it does not own")
	}
	if got, _ := f.testimonials.GetByID(context.Background(), seed.ID); got == nil {
		t.Error("testimonial removed despite ownership mismatch")
	}
}

func TestListFilters(t *testing.T) {
	f, svc := newReviewFixture()
	f.seedTestimonial(domain.StatusApproved)
	f.seedTestimonial(domain.StatusPending)
	low := f.seedTestimonial(domain.StatusApproved)
	f.testimonials.testimonials[low.ID].Rating = 2

	approved := domain.StatusApproved
	got, err := svc.List(context.Background(), 1, domain.TestimonialFilter{Status: &approved, MinRating: 3}, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 approved testimonial with rating >= 3", len(got))
	}
	if got[0].Status != domain.StatusApproved || got[0].Rating < 3 {
		t.Errorf("filter leak: %+v", got[0])
	}
}
