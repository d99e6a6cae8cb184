package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/keagan/highlightview/internal/vision"
	"gocv.io/x/gocv"
)

// State is the lifecycle of a Driver run
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StopReason says why a run ended
type StopReason string

const (
	StopEndOfStream   StopReason = "end_of_stream"
	StopFrameLimit    StopReason = "frame_limit"
	StopUserRequested StopReason = "user_requested"
	StopCancelled     StopReason = "cancelled"
	StopFailed        StopReason = "failed"
)

// FrameResult is everything computed for one sampled frame
type FrameResult struct {
	// Index is the 1-based position of the frame in the decoded stream
	Index int
	// Sequence counts sampled frames from 1
	Sequence    int
	Features    vision.Features
	Motion      float64
	Probability float64
	Fused       float64
	Delay       time.Duration
	Highlight   bool
}

// Summary describes a finished run
type Summary struct {
	State           State
	Reason          StopReason
	FramesDecoded   int
	FramesSampled   int
	ScoringFailures int
	Highlights      int
	Elapsed         time.Duration
	Err             error
}

// Display presents a rendered frame and holds it for delay. It returns
// playback.ErrStopRequested when the viewer asks to stop.
type Display interface {
	Show(ctx context.Context, frame *image.RGBA, delay time.Duration) error
	Close() error
}

// Scorer turns a feature vector into a probability and never fails
type Scorer interface {
	Score(ctx context.Context, features []float64) float64
	Failures() int
}

// MotionScorer scores a grayscale frame against the one before it. It may
// retain a copy of gray; Close frees whatever it retains.
type MotionScorer interface {
	Update(gray gocv.Mat) float64
	Close() error
}

// Observer receives each FrameResult after pacing is decided and before the
// frame is shown
type Observer interface {
	Observe(FrameResult)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(FrameResult)

func (f ObserverFunc) Observe(r FrameResult) {
	f(r)
}
