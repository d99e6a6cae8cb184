package playback

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrStopRequested is returned by a display when the viewer asks to stop
var ErrStopRequested = errors.New("playback stopped by viewer")

// Headless is a display without a window. It keeps the playback timing by
// waiting out each frame's delay, so traces and logs match a windowed run.
type Headless struct{}

func NewHeadless() *Headless {
	return &Headless{}
}

// Show waits for delay or until ctx is done
func (h *Headless) Show(ctx context.Context, frame *image.RGBA, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (h *Headless) Close() error {
	return nil
}
