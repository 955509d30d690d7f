package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/testimonialnudger/api/internal/domain"
	"github.com/testimonialnudger/api/internal/http/handlers"
	"github.com/testimonialnudger/api/internal/http/response"
	"github.com/testimonialnudger/api/internal/service"
)

type mockSubmissionService struct {
	resolveRes *domain.TokenResolveResponse
	resolveErr error

	submitRes  *domain.Testimonial
	submitErr  error
	gotToken   string
	gotInput   *domain.SubmissionInput
	submitCall int
}

func (m *mockSubmissionService) ResolveToken(_ context.Context, token string) (*domain.TokenResolveResponse, error) {
	m.gotToken = token
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.resolveRes, nil
}

func (m *mockSubmissionService) Submit(_ context.Context, token string, in *domain.SubmissionInput) (*domain.Testimonial, error) {
	m.submitCall++
	m.gotToken = token
	m.gotInput = in
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.submitRes, nil
}

type filePart struct {
	field, name, contentType, data string
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte(f.data)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"token":           "tok123",
		"content":         "Great work",
		"rating":          "5",
		"clientName":      "Jane",
		"allowPublishing": "true",
	}
}

func newServer(svc service.SubmissionService) *httptest.Server {
	h := handlers.NewPublicHandler(svc, 10<<20)
	return httptest.NewServer(h.Routes())
}

func decodeError(t *testing.T, res *http.Response) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestSubmitEndpointCreated(t *testing.T) {
	mock := &mockSubmissionService{
		submitRes: &domain.Testimonial{ID: 7, Status: domain.StatusPending, Rating: 5},
	}
	srv := newServer(mock)
	defer srv.Close()

	body, ct := multipartBody(t, validFields(),
		filePart{"media", "photo.png", "image/png", "fakepng"})

	res, err := http.Post(srv.URL+"/testimonials", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", res.StatusCode)
	}

	var created domain.Testimonial
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != 7 {
		t.Errorf("id = %d, want 7", created.ID)
	}

	if mock.gotToken != "tok123" {
		t.Errorf("token = %q, want tok123", mock.gotToken)
	}
	if mock.gotInput.Rating != 5 || mock.gotInput.ClientName != "Jane" || !mock.gotInput.AllowPublishing {
		t.Errorf("input not passed through: %+v", mock.gotInput)
	}
	if len(mock.gotInput.Media) != 1 {
		t.Fatalf("media = %d files, want 1", len(mock.gotInput.Media))
	}
	if f := mock.gotInput.Media[0]; f.Filename != "photo.png" || f.ContentType != "image/png" || string(f.Data) != "fakepng" {
		t.Errorf("media file mangled: %+v", f)
	}
}

func TestSubmitEndpointNonIntegerRating(t *testing.T) {
	mock := &mockSubmissionService{}
	srv := newServer(mock)
	defer srv.Close()

	for _, bad := range []string{"4.5", "five", ""} {
		fields := validFields()
		fields["rating"] = bad
		body, ct := multipartBody(t, fields)

		res, err := http.Post(srv.URL+"/testimonials", ct, body)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		eb := decodeError(t, res)
		res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("rating %q: status = %d, want 400", bad, res.StatusCode)
		}
		if eb.Code != response.CodeInvalidInput {
			t.Errorf("rating %q: code = %q, want %q", bad, eb.Code, response.CodeInvalidInput)
		}
	}

	if mock.submitCall != 0 {
		t.Errorf("service called %d times for malformed ratings, want 0", mock.submitCall)
	}
}

func TestSubmitEndpointMissingToken(t *testing.T) {
	mock := &mockSubmissionService{}
	srv := newServer(mock)
	defer srv.Close()

	fields := validFields()
	delete(fields, "token")
	body, ct := multipartBody(t, fields)

	res, err := http.Post(srv.URL+"/testimonials", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
	if mock.submitCall != 0 {
		t.Error("service called without a token")
	}
}

func TestSubmitEndpointValidationError(t *testing.T) {
	mock := &mockSubmissionService{
		submitErr: &service.ValidationError{Field: "content", Reason: "must not be empty"},
	}
	srv := newServer(mock)
	defer srv.Close()

	body, ct := multipartBody(t, validFields())
	res, err := http.Post(srv.URL+"/testimonials", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	eb := decodeError(t, res)
	res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
	if eb.Code != response.CodeInvalidInput || !strings.Contains(eb.Details, "content") {
		t.Errorf("unexpected error body: %+v", eb)
	}
}

func TestSubmitEndpointInvalidTokenIsGeneric(t *testing.T) {
	// Unknown, expired and already-used tokens must all produce the exact same
	// response, exposing nothing about which case it was.
	mock := &mockSubmissionService{submitErr: service.ErrInvalidToken}
	srv := newServer(mock)
	defer srv.Close()

	var bodies []string
	for _, token := range []string{"never-issued", "expired-one", "spent-one"} {
		fields := validFields()
		fields["token"] = token
		body, ct := multipartBody(t, fields)

		res, err := http.Post(srv.URL+"/testimonials", ct, body)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		if res.StatusCode != http.StatusNotFound {
			t.Errorf("token %q: status = %d, want 404", token, res.StatusCode)
		}
		var raw bytes.Buffer
		if _, err := raw.ReadFrom(res.Body); err != nil {
			t.Fatalf("read body: %v", err)
		}
		res.Body.Close()
		bodies = append(bodies, raw.String())
	}

	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("token failure responses differ:\n%s\n%s", bodies[0], bodies[i])
		}
	}
	if !strings.Contains(bodies[0], response.CodeInvalidToken) {
		t.Errorf("body %q missing code %q", bodies[0], response.CodeInvalidToken)
	}
}

func TestSubmitEndpointOversizedMediaDropped(t *testing.T) {
	mock := &mockSubmissionService{
		submitRes: &domain.Testimonial{ID: 1, Status: domain.StatusPending},
	}
	h := handlers.NewPublicHandler(mock, 16) // 16-byte cap
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	body, ct := multipartBody(t, validFields(),
		filePart{"media", "big.png", "image/png", strings.Repeat("x", 64)},
		filePart{"media", "ok.png", "image/png", "tiny"})

	res, err := http.Post(srv.URL+"/testimonials", ct, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", res.StatusCode)
	}
	if len(mock.gotInput.Media) != 1 || mock.gotInput.Media[0].Filename != "ok.png" {
		t.Errorf("media = %+v, want only ok.png", mock.gotInput.Media)
	}
}

func TestResolveTokenEndpoint(t *testing.T) {
	mock := &mockSubmissionService{
		resolveRes: &domain.TokenResolveResponse{
			Business: domain.BusinessPublic{ID: 1, Name: "Acme Design"},
			Token:    domain.TokenPrefill{ClientName: "Jane", ClientEmail: "jane@x.com", ServiceType: "Design"},
		},
	}
	srv := newServer(mock)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/testimonial-tokens/tok123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var out domain.TokenResolveResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Business.Name != "Acme Design" || out.Token.ClientEmail != "jane@x.com" {
		t.Errorf("unexpected payload: %+v", out)
	}
	if mock.gotToken != "tok123" {
		t.Errorf("token = %q, want tok123", mock.gotToken)
	}
}

func TestResolveTokenEndpointInvalid(t *testing.T) {
	mock := &mockSubmissionService{resolveErr: service.ErrInvalidToken}
	srv := newServer(mock)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/testimonial-tokens/bogus")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	eb := decodeError(t, res)
	res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.StatusCode)
	}
	if eb.Code != response.CodeInvalidToken {
		t.Errorf("code = %q, want %q", eb.Code, response.CodeInvalidToken)
	}
}
