package handler

import (
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/fracturedetect/internal/model"
	"github.com/fracturedetect/internal/overlay"
)

// OverlayHandler serves fracture overlays for the rendered preview.
type OverlayHandler struct {
	BaseHandler
}

func NewOverlayHandler(logger *slog.Logger) *OverlayHandler {
	return &OverlayHandler{BaseHandler: BaseHandler{Logger: logger}}
}

type overlayResponse struct {
	Rect *model.Rect `json:"rect"`
}

func project(report *model.DiagnosticReport, width, height float64) overlayResponse {
	if rect, ok := overlay.Project(report, width, height); ok {
		return overlayResponse{Rect: &rect}
	}
	return overlayResponse{}
}

func validDimensions(width, height float64) error {
	for _, v := range []float64{width, height} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("width and height must be positive numbers")
		}
	}
	return nil
}

// Get projects the session's report onto an image rendered at the
// ?width= and ?height= given in pixels.
func (h *OverlayHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	width, errW := strconv.ParseFloat(q.Get("width"), 64)
	height, errH := strconv.ParseFloat(q.Get("height"), 64)
	if err := errors.Join(errW, errH); err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("width and height are required: %w", err))
		return
	}
	if err := validDimensions(width, height); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if err := h.writeJSON(w, http.StatusOK, project(s.State().Report, width, height), nil); err != nil {
		h.logError(r, err)
	}
}

// Project projects a report supplied by the caller. It needs no session.
func (h *OverlayHandler) Project(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Report *model.DiagnosticReport `json:"report"`
		Width  float64                 `json:"width"`
		Height float64                 `json:"height"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if err := validDimensions(input.Width, input.Height); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if err := h.writeJSON(w, http.StatusOK, project(input.Report, input.Width, input.Height), nil); err != nil {
		h.logError(r, err)
	}
}

// Image serves the selected image. With ?annotated=1 the fracture region of
// the current report is drawn onto it and the result is sent as PNG.
func (h *OverlayHandler) Image(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	st := s.State()
	if st.Image == nil {
		h.errorResponse(w, r, http.StatusNotFound, "no image selected")
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	if annotated, _ := strconv.ParseBool(r.URL.Query().Get("annotated")); !annotated {
		w.Header().Set("Content-Type", st.Image.ContentType)
		_, _ = w.Write(st.Image.Data())
		return
	}

	img, err := st.Image.Decode()
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, overlay.Annotate(img, st.Report)); err != nil {
		h.logError(r, fmt.Errorf("encoding annotated image: %w", err))
	}
}
