package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// MatFromRGBA copies img into a new 4-channel Mat in RGBA order. Sub-images
// and padded strides are packed row by row.
func MatFromRGBA(img *image.RGBA) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("empty frame %v", b)
	}

	pix := img.Pix
	if img.Stride != w*4 || b.Min != (image.Point{}) {
		pix = make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			copy(pix[y*w*4:(y+1)*w*4], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	}

	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, pix[:w*h*4])
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap frame: %w", err)
	}
	defer src.Close()

	return src.Clone(), nil
}

// RGBAFromMat copies a 4-channel 8-bit Mat into a new image
func RGBAFromMat(m gocv.Mat) (*image.RGBA, error) {
	if m.Type() != gocv.MatTypeCV8UC4 {
		return nil, fmt.Errorf("expected an 8-bit 4-channel mat, got type %v", m.Type())
	}

	img := image.NewRGBA(image.Rect(0, 0, m.Cols(), m.Rows()))
	copy(img.Pix, m.ToBytes())
	return img, nil
}

// Grayscale converts img to single-channel intensity with the BT.601 weights
func Grayscale(img *image.RGBA) (gocv.Mat, error) {
	rgba, err := MatFromRGBA(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rgba.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(rgba, &gray, gocv.ColorRGBAToGray)
	return gray, nil
}
