package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fracturedetect/internal/media"
	"github.com/fracturedetect/internal/middleware"
	"github.com/fracturedetect/internal/session"
)

func newTestBase() *BaseHandler {
	return &BaseHandler{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))}
}

func TestSessionErrorResponse(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"no request", session.ErrNoRequestSelected, http.StatusBadRequest, "Please upload an X-ray image first."},
		{"pending", session.ErrAnalysisPending, http.StatusConflict, "already in progress"},
		{"connectivity", fmt.Errorf("%w (%w)", session.ErrConnectivity, errors.New("timeout")), http.StatusBadGateway, "Could not connect to the ML service."},
		{"too large", &media.TooLargeError{Size: 20 << 20, Limit: 10 << 20}, http.StatusRequestEntityTooLarge, "20 MiB"},
		{"unsupported", fmt.Errorf("%w: text/plain", media.ErrUnsupportedType), http.StatusUnsupportedMediaType, "valid image file"},
		{"empty", media.ErrEmpty, http.StatusUnsupportedMediaType, "valid image file"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "could not process your request"},
	}

	h := newTestBase()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.sessionErrorResponse(rr, httptest.NewRequest(http.MethodPost, "/api/analyze", nil), tc.err)
			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if !strings.Contains(rr.Body.String(), tc.wantBody) {
				t.Errorf("body %q does not contain %q", rr.Body, tc.wantBody)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"width":1}`, ""},
		{"empty", ``, "must not be empty"},
		{"syntax", `{"width":`, "badly-formed"},
		{"unknown field", `{"depth":1}`, "unknown field"},
		{"wrong type", `{"width":"wide"}`, "incorrect JSON type"},
		{"two values", `{"width":1}{"width":2}`, "single JSON value"},
	}

	h := newTestBase()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dst struct {
				Width float64 `json:"width"`
			}
			req := httptest.NewRequest(http.MethodPost, "/api/overlay", strings.NewReader(tc.body))
			err := h.readJSON(httptest.NewRecorder(), req, &dst)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCurrentSessionMissing(t *testing.T) {
	h := NewAnalysisHandler(newTestBase().Logger, nil, 1<<20)
	rr := httptest.NewRecorder()
	h.State(rr, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestStateFromContextSession(t *testing.T) {
	s := session.NewStore(time.Hour, nil).Create()
	h := NewAnalysisHandler(newTestBase().Logger, nil, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req = req.WithContext(middleware.WithSession(req.Context(), s))
	rr := httptest.NewRecorder()
	h.State(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	if !strings.Contains(rr.Body.String(), `"phase":"idle"`) {
		t.Errorf("unexpected body %s", rr.Body)
	}
}

func TestAnalyzeWithoutSelection(t *testing.T) {
	s := session.NewStore(time.Hour, nil).Create()
	h := NewAnalysisHandler(newTestBase().Logger, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	req = req.WithContext(middleware.WithSession(req.Context(), s))
	rr := httptest.NewRecorder()
	h.Analyze(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	if got := s.State().Phase; got != session.PhaseErrored {
		t.Errorf("phase = %v, want errored", got)
	}
}
