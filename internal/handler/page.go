package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/fracturedetect/internal/model"
)

type pageData struct {
	Title          string
	MaxUploadMB    int
	LatencyMillis  int64
	NormalizedSize int
}

// PageHandler renders the single page UI.
type PageHandler struct {
	templates *template.Template
	data      pageData
}

func NewPageHandler(tmpl *template.Template, maxUploadMB int, latency time.Duration) *PageHandler {
	return &PageHandler{
		templates: tmpl,
		data: pageData{
			Title:          "AI Fracture Detector",
			MaxUploadMB:    maxUploadMB,
			LatencyMillis:  latency.Milliseconds(),
			NormalizedSize: model.NormalizedExtent,
		},
	}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", h.data); err != nil {
		slog.Error("page: template error", "err", err)
	}
}
