// Package playback paces the display of scored frames: highlight frames are
// held on screen longer than ordinary ones.
package playback

import (
	"time"

	"github.com/keagan/highlightview/internal/config"
)

// RateController maps a fused score to how long its frame stays on screen
type RateController struct {
	threshold float64
	low       time.Duration
	high      time.Duration
}

func NewRateController(cfg config.PlaybackConfig) *RateController {
	return &RateController{
		threshold: cfg.Threshold,
		low:       time.Duration(cfg.LowDelayMS) * time.Millisecond,
		high:      time.Duration(cfg.HighDelayMS) * time.Millisecond,
	}
}

// IsHighlight reports whether fused reaches the highlight threshold
func (r *RateController) IsHighlight(fused float64) bool {
	return fused >= r.threshold
}

// DelayFor returns the display delay for a frame with the given fused score
func (r *RateController) DelayFor(fused float64) time.Duration {
	if r.IsHighlight(fused) {
		return r.high
	}
	return r.low
}
