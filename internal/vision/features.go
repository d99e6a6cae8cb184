// Package vision computes per-frame intensity features and the motion signal.
package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// Edge detector thresholds. Fixed so feature vectors stay comparable with the
// ones the classifier was evaluated against.
const (
	CannyLow  = 80
	CannyHigh = 150
)

// FeatureCount is the length of a Features vector
const FeatureCount = 3

// Features is the ordered per-frame feature set
type Features struct {
	MeanIntensity float64
	StdIntensity  float64
	EdgeCount     float64
}

// Vector returns the features in classifier order: mean, std, edges
func (f Features) Vector() []float64 {
	return []float64{f.MeanIntensity, f.StdIntensity, f.EdgeCount}
}

// Extract converts frame to grayscale once and derives every feature from that
// single conversion. The grayscale Mat is returned for motion estimation and
// must be closed by the caller.
func Extract(frame *image.RGBA) (gocv.Mat, Features, error) {
	gray, err := Grayscale(frame)
	if err != nil {
		return gray, Features{}, err
	}

	mean, std := MeanStd(gray)
	return gray, Features{
		MeanIntensity: mean,
		StdIntensity:  std,
		EdgeCount:     float64(EdgeCount(gray, CannyLow, CannyHigh)),
	}, nil
}

// MeanStd returns the mean and population standard deviation of a
// single-channel Mat
func MeanStd(gray gocv.Mat) (float64, float64) {
	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()

	gocv.MeanStdDev(gray, &mean, &std)
	return mean.GetDoubleAt(0, 0), std.GetDoubleAt(0, 0)
}

// Canny returns the binary edge map of gray (255 on edges). The caller closes it.
func Canny(gray gocv.Mat, low, high float32) gocv.Mat {
	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, low, high)
	return edges
}

// EdgeCount returns the number of Canny edge pixels in gray
func EdgeCount(gray gocv.Mat, low, high float32) int {
	edges := Canny(gray, low, high)
	defer edges.Close()
	return gocv.CountNonZero(edges)
}
