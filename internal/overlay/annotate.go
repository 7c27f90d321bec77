package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fracturedetect/internal/model"
)

const borderWidth = 3

var (
	borderColor = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	// 20% of the border color, premultiplied.
	fillColor  = color.RGBA{R: 0x30, G: 0x0e, B: 0x0e, A: 0x33}
	labelColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Annotate returns a copy of img with the report's fracture region drawn on
// it. Parts of the region outside the image are clipped when drawing.
func Annotate(img image.Image, report *model.DiagnosticReport) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)

	r, ok := Project(report, float64(b.Dx()), float64(b.Dy()))
	if !ok {
		return dst
	}

	box := image.Rect(
		b.Min.X+int(math.Round(r.Left)),
		b.Min.Y+int(math.Round(r.Top)),
		b.Min.X+int(math.Round(r.Left+r.Width)),
		b.Min.Y+int(math.Round(r.Top+r.Height)),
	)

	draw.Draw(dst, box.Intersect(b), image.NewUniform(fillColor), image.Point{}, draw.Over)
	strokeRect(dst, box, borderWidth, borderColor)
	drawLabel(dst, box, fmt.Sprintf("%s %.0f%%", report.FractureType, report.Confidence*100))

	return dst
}

func strokeRect(dst draw.Image, r image.Rectangle, w int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y),
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text on a border-colored tab above the box, or inside its
// top edge when there is no room above.
func drawLabel(dst *image.RGBA, box image.Rectangle, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(labelColor), Face: face}

	pad := 3
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()
	tw := d.MeasureString(text).Ceil()

	top := box.Min.Y - ascent - descent - 2*pad
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	tab := image.Rect(box.Min.X, top, box.Min.X+tw+2*pad, top+ascent+descent+2*pad)
	draw.Draw(dst, tab.Intersect(dst.Bounds()), image.NewUniform(borderColor), image.Point{}, draw.Src)

	d.Dot = fixed.Point26_6{X: fixed.I(tab.Min.X + pad), Y: fixed.I(tab.Min.Y + pad + ascent)}
	d.DrawString(text)
}
