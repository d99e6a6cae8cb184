package video

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/keagan/highlightview/internal/vision"
	"gocv.io/x/gocv"
)

// Preprocessor resizes frames to the canonical resolution. The aspect ratio
// is not preserved; trained classifiers expect the stretched geometry.
type Preprocessor struct {
	Width  int
	Height int
}

func NewPreprocessor(width, height int) *Preprocessor {
	return &Preprocessor{Width: width, Height: height}
}

// Normalize returns a Width x Height copy of img, resampled with bilinear
// interpolation over the 2x2 source neighbourhood
func (p *Preprocessor) Normalize(img *image.RGBA) (*image.RGBA, error) {
	b := img.Bounds()
	if b.Dx() == p.Width && b.Dy() == p.Height {
		out := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
		return out, nil
	}

	src, err := vision.MatFromRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare frame for resize: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(p.Width, p.Height), 0, 0, gocv.InterpolationLinear)

	return vision.RGBAFromMat(dst)
}
