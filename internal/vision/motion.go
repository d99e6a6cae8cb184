package vision

import "gocv.io/x/gocv"

// Mean absolute frame difference mapped to motion 0 and 1 respectively
const (
	MotionDiffLow  = 5.0
	MotionDiffHigh = 25.0
)

// MotionEstimator keeps a copy of the previous grayscale frame and scores how
// much the picture changed since then. It is owned by a single pipeline run
// and must be closed to free the retained frame.
type MotionEstimator struct {
	prev gocv.Mat
	held bool
}

func NewMotionEstimator() *MotionEstimator {
	return &MotionEstimator{}
}

// Update scores gray against the retained frame and then retains a copy of
// gray. The first frame, or a frame whose size differs from the retained
// one, scores 0.
func (m *MotionEstimator) Update(gray gocv.Mat) float64 {
	cur := gray.Clone()
	defer m.retain(cur)

	if !m.held || m.prev.Rows() != cur.Rows() || m.prev.Cols() != cur.Cols() {
		return 0
	}

	return NormalizeMotion(MeanAbsDiff(m.prev, cur))
}

func (m *MotionEstimator) retain(cur gocv.Mat) {
	if m.held {
		m.prev.Close()
	}
	m.prev = cur
	m.held = true
}

// Close drops the retained frame. The estimator starts over afterwards.
func (m *MotionEstimator) Close() error {
	if m.held {
		m.held = false
		return m.prev.Close()
	}
	return nil
}

// MeanAbsDiff returns the mean absolute per-pixel difference of two equally
// sized single-channel Mats
func MeanAbsDiff(a, b gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()

	gocv.AbsDiff(a, b, &diff)
	return diff.Mean().Val1
}

// NormalizeMotion maps a mean difference linearly from
// [MotionDiffLow, MotionDiffHigh] onto [0, 1], clamping outside that range
func NormalizeMotion(diff float64) float64 {
	score := (diff - MotionDiffLow) / (MotionDiffHigh - MotionDiffLow)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
