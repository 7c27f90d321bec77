package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fracturedetect/internal/media"
	"github.com/fracturedetect/internal/simulator"
)

// multipartOverhead is allowed on top of the image limit for form framing.
const multipartOverhead = 1 << 20

// AnalysisHandler drives a session through upload and analysis.
type AnalysisHandler struct {
	BaseHandler
	analyzer       simulator.Analyzer
	maxUploadBytes int64
}

func NewAnalysisHandler(logger *slog.Logger, analyzer simulator.Analyzer, maxUploadBytes int64) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		analyzer:       analyzer,
		maxUploadBytes: maxUploadBytes,
	}
}

// State returns the session's current state.
func (h *AnalysisHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	if err := h.writeJSON(w, http.StatusOK, newStateResponse(s.State()), nil); err != nil {
		h.logError(r, err)
	}
}

// Upload selects the image in the multipart field "image". An invalid upload
// clears the current selection.
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes + multipartOverhead); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			h.sessionErrorResponse(w, r, &media.TooLargeError{Limit: h.maxUploadBytes})
			return
		}
		h.badRequestResponse(w, r, fmt.Errorf("form invalid: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.badRequestResponse(w, r, errors.New("no image uploaded"))
		return
	}
	if header.Size > h.maxUploadBytes {
		file.Close()
		h.sessionErrorResponse(w, r, &media.TooLargeError{Size: header.Size, Limit: h.maxUploadBytes})
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	file.Close()
	if err != nil {
		h.serverErrorResponse(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}

	img, err := media.Inspect(header.Filename, data, h.maxUploadBytes)
	if err != nil {
		h.Logger.Warn("upload rejected", "session", s.ID, "err", err)
		if !errors.Is(err, media.ErrTooLarge) {
			// An invalid file drops the selection.
			_, _ = s.Clear()
		}
		h.sessionErrorResponse(w, r, err)
		return
	}

	st, err := s.Select(img)
	if err != nil {
		h.sessionErrorResponse(w, r, err)
		return
	}

	h.Logger.Info("image selected",
		"session", s.ID,
		"content_type", img.ContentType,
		"size", img.Size(),
		"dimensions", fmt.Sprintf("%dx%d", img.Width, img.Height),
		"fingerprint", img.Fingerprint,
	)

	if err := h.writeJSON(w, http.StatusOK, newStateResponse(st), nil); err != nil {
		h.logError(r, err)
	}
}

// Discard drops the selected image and any report.
func (h *AnalysisHandler) Discard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	st, err := s.Clear()
	if err != nil {
		h.sessionErrorResponse(w, r, err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, newStateResponse(st), nil); err != nil {
		h.logError(r, err)
	}
}

// Analyze runs the analysis of the selected image and responds once the
// report is available.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	st, err := s.Analyze(r.Context(), h.analyzer)
	if err != nil {
		h.sessionErrorResponse(w, r, err)
		return
	}

	if err := h.writeJSON(w, http.StatusOK, newStateResponse(st), nil); err != nil {
		h.logError(r, err)
	}
}
