package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/testimonialnudger/api/internal/domain"
	"github.com/testimonialnudger/api/internal/http/response"
	"github.com/testimonialnudger/api/internal/service"
	"github.com/testimonialnudger/api/pkg/logger"
)

// PublicHandler serves the unauthenticated form endpoints: token resolution
// and testimonial submission.
type PublicHandler struct {
	Svc          service.SubmissionService
	MaxFileBytes int64
}

func NewPublicHandler(svc service.SubmissionService, maxFileBytes int64) *PublicHandler {
	return &PublicHandler{Svc: svc, MaxFileBytes: maxFileBytes}
}

func (h *PublicHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/testimonial-tokens/{token}", h.resolveToken)
	r.Post("/testimonials", h.submit)
	return r
}

func (h *PublicHandler) resolveToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "Token parameter is required")
		return
	}

	res, err := h.Svc.ResolveToken(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *PublicHandler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.MaxFileBytes); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	token := r.FormValue("token")
	if token == "" {
		response.BadRequest(w, "Token is required")
		return
	}

	ratingRaw := strings.TrimSpace(r.FormValue("rating"))
	rating, err := strconv.Atoi(ratingRaw)
	if err != nil {
		response.WriteErrorWithDetails(w, http.StatusBadRequest,
			"Validation failed", response.CodeInvalidInput, "rating must be an integer between 1 and 5")
		return
	}

	in := &domain.SubmissionInput{
		Content:          r.FormValue("content"),
		Rating:           rating,
		ClientName:       r.FormValue("clientName"),
		ClientRole:       r.FormValue("clientRole"),
		AllowPublishing:  r.FormValue("allowPublishing") == "true",
		PersonalNote:     r.FormValue("personalNote"),
		RecommenderEmail: formOrQuery(r, "recommenderEmail"),
		RecommenderName:  formOrQuery(r, "recommenderName"),
		Media:            h.readMedia(r),
	}

	created, err := h.Svc.Submit(r.Context(), token, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// readMedia drains the uploaded file parts into memory. Oversized files are
// dropped here for the same reason failed uploads are dropped later: media is
// supplementary and must never sink a submission.
func (h *PublicHandler) readMedia(r *http.Request) []domain.MediaFile {
	if r.MultipartForm == nil {
		return nil
	}

	var files []domain.MediaFile
	for _, fh := range r.MultipartForm.File["media"] {
		if fh.Size > h.MaxFileBytes {
			logger.WarnContext(r.Context(), "Dropping oversized media file",
				"filename", fh.Filename, "size", fh.Size)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			logger.WarnContext(r.Context(), "Failed to open media part",
				"filename", fh.Filename, "error", err)
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, h.MaxFileBytes))
		f.Close()
		if err != nil {
			logger.WarnContext(r.Context(), "Failed to read media part",
				"filename", fh.Filename, "error", err)
			continue
		}

		files = append(files, domain.MediaFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files
}

func (h *PublicHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		response.WriteErrorWithDetails(w, http.StatusBadRequest,
			"Validation failed", response.CodeInvalidInput, ve.Error())
		return
	}
	if errors.Is(err, service.ErrInvalidToken) {
		response.InvalidToken(w)
		return
	}

	logger.ErrorContext(r.Context(), "Submission request failed", "error", err)
	response.InternalError(w, "Something went wrong")
}

func formOrQuery(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return r.URL.Query().Get(key)
}
