package ai

import "math"

// Fuse blends the model probability with the motion score:
// weight*probability + (1-weight)*motion, clamped to [0,1].
func Fuse(weight, probability, motion float64) float64 {
	fused := weight*probability + (1-weight)*motion
	return math.Max(0, math.Min(1, fused))
}
