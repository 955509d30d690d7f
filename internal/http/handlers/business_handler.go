package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/testimonialnudger/api/internal/domain"
	mw "github.com/testimonialnudger/api/internal/http/middleware"
	"github.com/testimonialnudger/api/internal/http/response"
	"github.com/testimonialnudger/api/internal/service"
	"github.com/testimonialnudger/api/pkg/logger"
)

// BusinessHandler serves the authenticated business-side endpoints: issuing
// testimonial requests and reviewing submitted testimonials.
type BusinessHandler struct {
	Requests     service.RequestService
	Testimonials service.TestimonialService
	JWTSecret    string
}

func NewBusinessHandler(requests service.RequestService, testimonials service.TestimonialService, jwtSecret string) *BusinessHandler {
	return &BusinessHandler{Requests: requests, Testimonials: testimonials, JWTSecret: jwtSecret}
}

func (h *BusinessHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireBusinessJWT(h.JWTSecret))

	r.Post("/testimonial-requests", h.issueRequest)
	r.Get("/testimonials", h.list)
	r.Patch("/testimonials/{id}", h.review)
	r.Delete("/testimonials/{id}", h.delete)

	return r
}

func (h *BusinessHandler) issueRequest(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	var in domain.RequestIssueInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	res, err := h.Requests.Issue(r.Context(), claims.BusinessID, &in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res)
}

func (h *BusinessHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	limit, offset := 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	var f domain.TestimonialFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseTestimonialStatus(raw)
		if !ok {
			response.BadRequest(w, "invalid status")
			return
		}
		f.Status = &st
	}
	if raw := r.URL.Query().Get("min_rating"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 5 {
			response.BadRequest(w, "invalid min_rating")
			return
		}
		f.MinRating = n
	}

	ts, err := h.Testimonials.List(r.Context(), claims.BusinessID, f, limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ts)
}

type reviewIn struct {
	Status string `json:"status"`
}

func (h *BusinessHandler) review(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "bad id")
		return
	}

	var in reviewIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	status, ok := domain.ParseTestimonialStatus(in.Status)
	if !ok {
		response.BadRequest(w, "invalid status")
		return
	}

	updated, err := h.Testimonials.Review(r.Context(), id, claims.BusinessID, status)
	var bad *service.ErrBadTransition
	if errors.As(err, &bad) {
		response.Conflict(w, bad.Error())
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if updated == nil {
		response.NotFound(w, "testimonial not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

func (h *BusinessHandler) delete(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "bad id")
		return
	}

	found, err := h.Testimonials.Delete(r.Context(), id, claims.BusinessID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !found {
		response.NotFound(w, "testimonial not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BusinessHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		response.WriteErrorWithDetails(w, http.StatusBadRequest,
			"Validation failed", response.CodeInvalidInput, ve.Error())
		return
	}

	logger.ErrorContext(r.Context(), "Business request failed", "error", err)
	response.InternalError(w, "Something went wrong")
}
