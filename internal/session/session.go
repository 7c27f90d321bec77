package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fracturedetect/internal/media"
	"github.com/fracturedetect/internal/model"
	"github.com/fracturedetect/internal/simulator"
)

// Session serializes the transitions of one browser's State.
type Session struct {
	ID string

	mu    sync.Mutex
	state State
}

func newSession(id string) *Session {
	return &Session{ID: id}
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Select(img *media.Image) (State, error) {
	return s.apply(func(st State) (State, error) { return st.Select(img) })
}

func (s *Session) Clear() (State, error) {
	return s.apply(State.Clear)
}

func (s *Session) apply(fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state)
	s.state = next
	return next, err
}

// Analyze runs one analysis of the selected image. Only one analysis can be
// pending per session; a second call gets ErrAnalysisPending. Once started
// the analysis runs to completion even if ctx is cancelled, so the outcome
// is always recorded.
func (s *Session) Analyze(ctx context.Context, analyzer simulator.Analyzer) (State, error) {
	started, err := s.apply(State.Begin)
	if err != nil {
		return started, err
	}

	req := model.AnalysisRequest{ImageRef: started.Image.Fingerprint}
	slog.Info("session: analysis started", "session", s.ID, "image_ref", req.ImageRef)

	report, err := analyzer.Analyze(context.WithoutCancel(ctx), req)
	if err == nil {
		if verr := report.Validate(); verr != nil {
			err = fmt.Errorf("invalid report: %w", verr)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		slog.Warn("session: analysis failed", "session", s.ID, "err", err)
		s.state = s.state.Fail(err)
		return s.state, s.state.Err
	}

	slog.Info("session: analysis complete", "session", s.ID, "status", report.Status)
	s.state = s.state.Complete(report)
	return s.state, nil
}
