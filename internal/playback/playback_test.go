package playback

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/keagan/highlightview/internal/config"
)

func TestDelayFor(t *testing.T) {
	rc := NewRateController(config.DefaultPlayback())

	tests := []struct {
		fused     float64
		want      time.Duration
		highlight bool
	}{
		{0.0, 25 * time.Millisecond, false},
		{0.45, 25 * time.Millisecond, false},
		{0.59, 25 * time.Millisecond, false},
		{0.6, 80 * time.Millisecond, true},
		{0.95, 80 * time.Millisecond, true},
		{1.0, 80 * time.Millisecond, true},
	}

	for _, tt := range tests {
		if got := rc.DelayFor(tt.fused); got != tt.want {
			t.Errorf("DelayFor(%v) = %v, want %v", tt.fused, got, tt.want)
		}
		if got := rc.IsHighlight(tt.fused); got != tt.highlight {
			t.Errorf("IsHighlight(%v) = %v, want %v", tt.fused, got, tt.highlight)
		}
	}
}

func TestDelayForCustomConfig(t *testing.T) {
	cfg := config.DefaultPlayback()
	cfg.Threshold = 0.8
	cfg.LowDelayMS = 10
	cfg.HighDelayMS = 200
	rc := NewRateController(cfg)

	if got := rc.DelayFor(0.79); got != 10*time.Millisecond {
		t.Errorf("expected 10ms below threshold, got %v", got)
	}
	if got := rc.DelayFor(0.8); got != 200*time.Millisecond {
		t.Errorf("expected 200ms at threshold, got %v", got)
	}
	if !rc.IsHighlight(0.8) || rc.IsHighlight(0.79) {
		t.Error("expected the configured threshold 0.8 to decide highlights")
	}
}

func TestHeadlessWaitsForDelay(t *testing.T) {
	h := NewHeadless()
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))

	start := time.Now()
	if err := h.Show(context.Background(), frame, 20*time.Millisecond); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %v, before the delay", elapsed)
	}
}

func TestHeadlessCancelled(t *testing.T) {
	h := NewHeadless()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Show(ctx, image.NewRGBA(image.Rect(0, 0, 1, 1)), time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
