package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fracturedetect/internal/handler"
	"github.com/fracturedetect/internal/middleware"
	"github.com/fracturedetect/internal/web"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))

	// Health check
	r.Get("/api/health", handler.Health(app.sessions))

	// Stateless projection
	overlayHandler := handler.NewOverlayHandler(app.logger)
	r.Post("/api/overlay", overlayHandler.Project)

	// Session bound UI
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(app.sessions, app.config.SecureCookies))

		pageHandler := handler.NewPageHandler(web.Templates, app.config.MaxUploadSizeMB, app.simulator.Latency())
		r.Get("/", pageHandler.Index)

		analysisHandler := handler.NewAnalysisHandler(app.logger, app.simulator, app.config.MaxUploadBytes())
		r.Get("/api/session", analysisHandler.State)
		limit := middleware.PerMinute(app.config.RateLimitPerMinute)
		r.With(middleware.RateLimit(limit, app.config.RateLimitPerMinute)).
			Post("/api/upload", analysisHandler.Upload)
		r.Delete("/api/upload", analysisHandler.Discard)
		r.With(middleware.RateLimit(limit, app.config.RateLimitPerMinute)).
			Post("/api/analyze", analysisHandler.Analyze)

		r.Get("/api/overlay", overlayHandler.Get)
		r.Get("/api/image", overlayHandler.Image)
	})

	return r
}
