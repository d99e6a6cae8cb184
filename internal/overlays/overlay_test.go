package overlays

import (
	"image"
	"image/color"
	"testing"
)

func filled(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func countColor(img *image.RGBA, rect image.Rectangle, c color.RGBA) int {
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func newRenderer(t *testing.T) *ScoreRenderer {
	t.Helper()
	r, err := NewScoreRenderer(DefaultStyle(0.6))
	if err != nil {
		t.Fatalf("NewScoreRenderer failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestLabel(t *testing.T) {
	tests := []struct {
		fused float64
		want  string
	}{
		{0, "Highlight prob: 0.00"},
		{0.45, "Highlight prob: 0.45"},
		{0.954, "Highlight prob: 0.95"},
		{1, "Highlight prob: 1.00"},
	}
	for _, tt := range tests {
		if got := Label(tt.fused); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.fused, got, tt.want)
		}
	}
}

func TestTextColor(t *testing.T) {
	r := newRenderer(t)
	green := color.RGBA{0, 255, 0, 255}
	red := color.RGBA{255, 0, 0, 255}

	tests := []struct {
		fused float64
		want  color.RGBA
	}{
		{0.0, green},
		{0.59, green},
		{0.6, red},
		{0.95, red},
	}
	for _, tt := range tests {
		if got := r.TextColor(tt.fused); got != tt.want {
			t.Errorf("TextColor(%v) = %v, want %v", tt.fused, got, tt.want)
		}
	}
}

func TestRenderDarkensBox(t *testing.T) {
	r := newRenderer(t)
	frame := filled(800, 450, 200)

	r.Render(frame, 0.3)

	// corner of the box is clear of text
	if got := frame.RGBAAt(12, 12); got != (color.RGBA{100, 100, 100, 200}) {
		t.Errorf("expected half-darkened box pixel, got %v", got)
	}
	if got := frame.RGBAAt(370, 70); got.R != 100 {
		t.Errorf("expected far box corner to be darkened, got %v", got)
	}
	for _, p := range []image.Point{{5, 5}, {371, 40}, {100, 71}, {700, 400}} {
		if got := frame.RGBAAt(p.X, p.Y); got.R != 200 {
			t.Errorf("pixel %v outside the box changed to %v", p, got)
		}
	}
}

func TestRenderTextColour(t *testing.T) {
	r := newRenderer(t)
	box := DefaultStyle(0.6).Box
	green := color.RGBA{0, 255, 0, 255}
	red := color.RGBA{255, 0, 0, 255}

	calm := filled(800, 450, 0)
	r.Render(calm, 0.45)
	if countColor(calm, box, green) == 0 {
		t.Error("expected green text below the threshold")
	}
	if countColor(calm, box, red) != 0 {
		t.Error("unexpected red text below the threshold")
	}

	hot := filled(800, 450, 0)
	r.Render(hot, 0.95)
	if countColor(hot, box, red) == 0 {
		t.Error("expected red text at a highlight")
	}
	if countColor(hot, box, green) != 0 {
		t.Error("unexpected green text at a highlight")
	}
}

func TestRenderSmallFrameIsClipped(t *testing.T) {
	r := newRenderer(t)
	frame := filled(40, 20, 255)
	r.Render(frame, 0.5)

	if got := frame.RGBAAt(15, 15); got.R != 128 {
		t.Errorf("expected clipped box to be darkened, got %v", got)
	}
	if got := frame.RGBAAt(5, 5); got.R != 255 {
		t.Errorf("pixel outside the box changed to %v", got)
	}
}
