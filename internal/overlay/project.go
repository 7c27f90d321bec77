// Package overlay maps normalized fracture regions onto rendered images.
package overlay

import "github.com/fracturedetect/internal/model"

// Project scales the report's bounding box to an image rendered at
// width x height pixels. It reports false when there is nothing to draw:
// no report, no fracture, or no box. The result is not clamped to the image.
func Project(report *model.DiagnosticReport, width, height float64) (model.Rect, bool) {
	if !report.Detected() || report.BoundingBox == nil {
		return model.Rect{}, false
	}

	scaleX := width / model.NormalizedExtent
	scaleY := height / model.NormalizedExtent
	b := report.BoundingBox

	return model.Rect{
		Left:   b.X * scaleX,
		Top:    b.Y * scaleY,
		Width:  b.Width * scaleX,
		Height: b.Height * scaleY,
	}, true
}
