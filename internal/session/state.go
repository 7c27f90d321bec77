// Package session holds the per-browser UI state of the fracture detector:
// which image is selected, whether an analysis is running and its outcome.
package session

import (
	"errors"
	"fmt"

	"github.com/fracturedetect/internal/media"
	"github.com/fracturedetect/internal/model"
)

var (
	ErrNoRequestSelected = errors.New("no image selected")
	ErrConnectivity      = errors.New("analysis service unreachable")
	ErrAnalysisPending   = errors.New("analysis already in progress")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFileSelected
	PhaseAnalyzing
	PhaseReported
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFileSelected:
		return "file_selected"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseReported:
		return "reported"
	case PhaseErrored:
		return "errored"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is one UI state. Which fields are set depends on Phase:
//
//	Idle          nothing
//	FileSelected  Image
//	Analyzing     Image
//	Reported      Image, Report
//	Errored       Err, and Image unless no file was ever selected
//
// Transitions return a new State and never modify the receiver.
type State struct {
	Phase  Phase
	Image  *media.Image
	Report *model.DiagnosticReport
	Err    error
}

// Select makes img the current file and drops any previous report or error.
func (s State) Select(img *media.Image) (State, error) {
	if s.Phase == PhaseAnalyzing {
		return s, ErrAnalysisPending
	}
	return State{Phase: PhaseFileSelected, Image: img}, nil
}

// Clear returns to Idle, dropping the selected file.
func (s State) Clear() (State, error) {
	if s.Phase == PhaseAnalyzing {
		return s, ErrAnalysisPending
	}
	return State{Phase: PhaseIdle}, nil
}

// Begin starts an analysis of the selected file. Without a file the state
// moves to Errored and ErrNoRequestSelected is returned. A stale report is
// dropped either way.
func (s State) Begin() (State, error) {
	switch {
	case s.Phase == PhaseAnalyzing:
		return s, ErrAnalysisPending
	case s.Image == nil:
		return State{Phase: PhaseErrored, Err: ErrNoRequestSelected}, ErrNoRequestSelected
	}
	return State{Phase: PhaseAnalyzing, Image: s.Image}, nil
}

// Complete records the report of the running analysis.
func (s State) Complete(report model.DiagnosticReport) State {
	return State{Phase: PhaseReported, Image: s.Image, Report: &report}
}

// Fail records a failed analysis. The cause is kept behind ErrConnectivity.
func (s State) Fail(cause error) State {
	return State{
		Phase: PhaseErrored,
		Image: s.Image,
		Err:   fmt.Errorf("%w (%w)", ErrConnectivity, cause),
	}
}

// Message returns the user facing error text of an Errored state.
func (s State) Message() string {
	if s.Err == nil {
		return ""
	}
	return UserMessage(s.Err)
}

// UserMessage translates session errors into the text shown in the UI.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoRequestSelected):
		return "Please upload an X-ray image first."
	case errors.Is(err, ErrAnalysisPending):
		return "An analysis is already in progress."
	case errors.Is(err, ErrConnectivity):
		return "Analysis failed: Could not connect to the ML service."
	default:
		return err.Error()
	}
}
