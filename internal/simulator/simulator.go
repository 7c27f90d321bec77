// Package simulator produces synthetic fracture reports. It stands in for a
// real inference backend: the image is never inspected and every call samples
// a fresh, independent outcome.
package simulator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fracturedetect/internal/model"
)

const (
	DefaultLatency      = 1500 * time.Millisecond
	DefaultFractureRate = 0.6
)

// Analyzer turns an analysis request into a diagnostic report.
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (model.DiagnosticReport, error)
}

type Simulator struct {
	clock        clockwork.Clock
	latency      time.Duration
	fractureRate float64

	mu  sync.Mutex
	rng *rand.Rand // nil means the global generator
}

type Option func(*Simulator)

// WithRand makes sampling draw from rng. Calls sharing rng are serialized.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) { s.rng = rng }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

func WithLatency(d time.Duration) Option {
	return func(s *Simulator) { s.latency = d }
}

func WithFractureRate(p float64) Option {
	return func(s *Simulator) { s.fractureRate = p }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		clock:        clockwork.NewRealClock(),
		latency:      DefaultLatency,
		fractureRate: DefaultFractureRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latency returns the simulated round-trip time of one analysis.
func (s *Simulator) Latency() time.Duration {
	return s.latency
}

// Analyze samples a report and delivers it once the simulated latency has
// elapsed, measured from the call. The image reference is not inspected.
// It only returns an error when ctx ends before the latency has elapsed.
func (s *Simulator) Analyze(ctx context.Context, req model.AnalysisRequest) (model.DiagnosticReport, error) {
	done := s.clock.After(s.latency)
	report := s.Sample()

	slog.Debug("simulator: report sampled",
		"image_ref", req.ImageRef,
		"status", report.Status,
		"latency", s.latency,
	)

	select {
	case <-done:
		return report, nil
	case <-ctx.Done():
		return model.DiagnosticReport{}, ctx.Err()
	}
}

// Sample draws one report without waiting.
func (s *Simulator) Sample() model.DiagnosticReport {
	if s.rng != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	if s.float64() >= s.fractureRate {
		return model.DiagnosticReport{
			Status:         model.StatusNoFractureDetected,
			Confidence:     model.MinNoFractureConfidence + s.float64()*(model.MaxConfidence-model.MinNoFractureConfidence),
			FractureType:   model.FractureNotApplicable,
			Recommendation: model.RecommendationNoFracture,
		}
	}

	types := model.FractureTypes()
	report := model.DiagnosticReport{
		Status:         model.StatusFractureDetected,
		Confidence:     model.MinFractureConfidence + s.float64()*(model.MaxConfidence-model.MinFractureConfidence),
		FractureType:   types[s.intN(len(types))],
		Recommendation: model.RecommendationFracture,
	}
	// Boxes are not clamped to the normalized extent; x+width may exceed it.
	report.BoundingBox = &model.BoundingBox{
		X:      float64(200 + s.intN(400)),
		Y:      float64(250 + s.intN(300)),
		Width:  float64(150 + s.intN(300)),
		Height: float64(100 + s.intN(200)),
	}
	return report
}

func (s *Simulator) float64() float64 {
	if s.rng != nil {
		return s.rng.Float64()
	}
	return rand.Float64()
}

func (s *Simulator) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}
