package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/fracturedetect/internal/config"
	"github.com/fracturedetect/internal/session"
	"github.com/fracturedetect/internal/simulator"
)

type App struct {
	config    *config.Config
	logger    *slog.Logger
	sessions  *session.Store
	simulator *simulator.Simulator
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return newApp(cfg, newLogger(cfg), clockwork.NewRealClock()), nil
}

func newApp(cfg *config.Config, logger *slog.Logger, clock clockwork.Clock) *App {
	opts := []simulator.Option{
		simulator.WithClock(clock),
		simulator.WithLatency(cfg.SimulatedLatency),
		simulator.WithFractureRate(cfg.FractureRate),
	}
	if cfg.RandomSeed != 0 {
		opts = append(opts, simulator.WithRand(rand.New(rand.NewPCG(cfg.RandomSeed, cfg.RandomSeed))))
	}

	return &App{
		config:    cfg,
		logger:    logger,
		sessions:  session.NewStore(cfg.SessionTTL, clock),
		simulator: simulator.New(opts...),
	}
}

// Start serves HTTP and expires idle sessions until ctx is cancelled.
func (app *App) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", app.config.Port),
		Handler:     app.routes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// Analyses hold the response for the simulated latency.
		WriteTimeout: 10*time.Second + app.simulator.Latency(),
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server",
			"addr", srv.Addr,
			"env", app.config.Env,
			"latency", app.config.SimulatedLatency,
			"fracture_rate", app.config.FractureRate,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return app.sessions.Run(gctx, app.config.JanitorInterval)
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
