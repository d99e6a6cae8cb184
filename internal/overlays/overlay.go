// Package overlays draws the score banner onto displayed frames.
package overlays

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Renderer annotates a frame in place with its fused score
type Renderer interface {
	Render(frame *image.RGBA, fused float64)
}

// Position is a point in frame coordinates
type Position struct {
	X int
	Y int
}

// Style describes the banner: a translucent black box with a label inside
type Style struct {
	// Box is the banner rectangle; both corners are drawn
	Box image.Rectangle
	// Opacity is the share of black blended over the box
	Opacity float64
	// Baseline is where the label text starts
	Baseline  Position
	FontSize  float64
	Normal    color.RGBA
	Highlight color.RGBA
	Threshold float64
}

// DefaultStyle returns the banner used for playback with the given threshold
func DefaultStyle(threshold float64) Style {
	return Style{
		Box:       image.Rect(10, 10, 371, 71),
		Opacity:   0.5,
		Baseline:  Position{X: 25, Y: 48},
		FontSize:  26,
		Normal:    color.RGBA{R: 0, G: 255, B: 0, A: 255},
		Highlight: color.RGBA{R: 255, G: 0, B: 0, A: 255},
		Threshold: threshold,
	}
}

// ScoreRenderer draws the banner with the Go Regular font
type ScoreRenderer struct {
	style Style
	face  font.Face
}

func NewScoreRenderer(style Style) (*ScoreRenderer, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    style.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	return &ScoreRenderer{style: style, face: face}, nil
}

// Label formats the banner text for a fused score
func Label(fused float64) string {
	return fmt.Sprintf("Highlight prob: %.2f", fused)
}

// TextColor returns the label colour: normal below the threshold, highlight
// at or above it
func (r *ScoreRenderer) TextColor(fused float64) color.RGBA {
	if fused < r.style.Threshold {
		return r.style.Normal
	}
	return r.style.Highlight
}

// Render darkens the banner box and writes the label over it. Parts of the
// banner outside the frame are clipped.
func (r *ScoreRenderer) Render(frame *image.RGBA, fused float64) {
	darken(frame, r.style.Box.Add(frame.Bounds().Min), r.style.Opacity)

	d := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(r.TextColor(fused)),
		Face: r.face,
		Dot: fixed.P(
			frame.Bounds().Min.X+r.style.Baseline.X,
			frame.Bounds().Min.Y+r.style.Baseline.Y,
		),
	}
	d.DrawString(Label(fused))
}

// Close releases the font face
func (r *ScoreRenderer) Close() error {
	return r.face.Close()
}

// darken blends black over rect with the given opacity
func darken(img *image.RGBA, rect image.Rectangle, opacity float64) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() || opacity <= 0 {
		return
	}
	if opacity >= 1 {
		draw.Draw(img, rect, image.Black, image.Point{}, draw.Src)
		return
	}

	keep := 1 - opacity
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := img.Pix[img.PixOffset(rect.Min.X, y):]
		for x := 0; x < rect.Dx(); x++ {
			p := row[x*4 : x*4+3]
			for c := range p {
				p[c] = uint8(math.Round(float64(p[c]) * keep))
			}
		}
	}
}
