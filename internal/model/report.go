package model

import (
	"fmt"
	"slices"
)

// NormalizedExtent is the size of the normalized coordinate space along each
// axis. A bounding box coordinate of 1000 is the full image width or height.
const NormalizedExtent = 1000

// Confidence bounds per status.
const (
	MinFractureConfidence   = 0.85
	MinNoFractureConfidence = 0.95
	MaxConfidence           = 0.99
)

type Status string

const (
	StatusFractureDetected   Status = "Fracture Detected"
	StatusNoFractureDetected Status = "No Fracture Detected"
)

type FractureType string

const (
	FractureTransverse FractureType = "Transverse"
	FractureOblique    FractureType = "Oblique"
	FractureSpiral     FractureType = "Spiral"
	FractureComminuted FractureType = "Comminuted"
	FractureGreenstick FractureType = "Greenstick"

	// FractureNotApplicable is reported when no fracture was detected.
	FractureNotApplicable FractureType = "N/A"
)

// FractureTypes returns the detectable fracture types in sampling order.
func FractureTypes() []FractureType {
	return []FractureType{
		FractureTransverse,
		FractureOblique,
		FractureSpiral,
		FractureComminuted,
		FractureGreenstick,
	}
}

const (
	RecommendationFracture   = "Consult Orthopedic Surgeon immediately. Immobilize the limb."
	RecommendationNoFracture = "Monitor patient symptoms. Consider follow-up imaging."
)

// Recommendation returns the fixed recommendation text for a status.
func Recommendation(s Status) string {
	if s == StatusFractureDetected {
		return RecommendationFracture
	}
	return RecommendationNoFracture
}

// BoundingBox is a region in normalized image space (0..NormalizedExtent).
// x+width and y+height are not guaranteed to stay inside the image.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DiagnosticReport is the result of one analysis. A report is never modified
// after it has been produced.
type DiagnosticReport struct {
	Status         Status       `json:"status"`
	Confidence     float64      `json:"confidence"`
	FractureType   FractureType `json:"fractureType"`
	Recommendation string       `json:"recommendation"`
	BoundingBox    *BoundingBox `json:"boundingBox"`
}

// Detected reports whether the report describes a fracture.
func (r *DiagnosticReport) Detected() bool {
	return r != nil && r.Status == StatusFractureDetected
}

// Validate checks the status-dependent invariants of a report.
func (r *DiagnosticReport) Validate() error {
	switch r.Status {
	case StatusFractureDetected:
		if r.Confidence < MinFractureConfidence || r.Confidence > MaxConfidence {
			return fmt.Errorf("confidence %.4f outside [%.2f, %.2f]", r.Confidence, MinFractureConfidence, MaxConfidence)
		}
		if !slices.Contains(FractureTypes(), r.FractureType) {
			return fmt.Errorf("unknown fracture type %q", r.FractureType)
		}
		if r.BoundingBox == nil {
			return fmt.Errorf("fracture report without bounding box")
		}
	case StatusNoFractureDetected:
		if r.Confidence < MinNoFractureConfidence || r.Confidence > MaxConfidence {
			return fmt.Errorf("confidence %.4f outside [%.2f, %.2f]", r.Confidence, MinNoFractureConfidence, MaxConfidence)
		}
		if r.FractureType != FractureNotApplicable {
			return fmt.Errorf("fracture type %q on a report without fracture", r.FractureType)
		}
		if r.BoundingBox != nil {
			return fmt.Errorf("bounding box on a report without fracture")
		}
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
	if r.Recommendation != Recommendation(r.Status) {
		return fmt.Errorf("unexpected recommendation for %q", r.Status)
	}
	return nil
}

// AnalysisRequest references the image an analysis is run for.
type AnalysisRequest struct {
	ImageRef string `json:"imageRef"`
}

// Rect is a pixel rectangle on a rendered image.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
