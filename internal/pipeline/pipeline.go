// Package pipeline runs the per-frame scoring loop: sample, normalize, extract
// features, estimate motion, classify, fuse, pace, render and display.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/keagan/highlightview/internal/ai"
	"github.com/keagan/highlightview/internal/config"
	"github.com/keagan/highlightview/internal/logging"
	"github.com/keagan/highlightview/internal/overlays"
	"github.com/keagan/highlightview/internal/playback"
	"github.com/keagan/highlightview/internal/video"
	"github.com/keagan/highlightview/internal/vision"
	"github.com/rs/zerolog"
)

// Deps are the collaborators a Driver works with. Source and Display are owned
// by the Driver once passed in and are closed when Run returns.
type Deps struct {
	Source   video.Source
	Scorer   Scorer
	Renderer overlays.Renderer
	Display  Display
	// Motion defaults to a fresh vision.MotionEstimator
	Motion MotionScorer
}

// Driver is a single-threaded scoring loop over one video
type Driver struct {
	logger zerolog.Logger
	config config.PlaybackConfig

	source   video.Source
	sampler  *video.Sampler
	pre      *video.Preprocessor
	motion   MotionScorer
	scorer   Scorer
	rate     *playback.RateController
	renderer overlays.Renderer
	display  Display

	observers []Observer

	mu        sync.Mutex
	state     State
	closeOnce sync.Once
	closeErr  error
}

// New creates a driver. cfg is copied and not read again from the caller.
func New(logger zerolog.Logger, cfg config.PlaybackConfig, deps Deps) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid playback config: %w", err)
	}
	if deps.Source == nil || deps.Scorer == nil || deps.Renderer == nil || deps.Display == nil {
		return nil, fmt.Errorf("driver requires a source, scorer, renderer and display")
	}

	motion := deps.Motion
	if motion == nil {
		motion = vision.NewMotionEstimator()
	}

	return &Driver{
		logger:   logger.With().Str("component", logging.ComponentPipeline).Logger(),
		config:   cfg,
		source:   deps.Source,
		sampler:  video.NewSampler(deps.Source, cfg.SampleStride, cfg.MaxFrames),
		pre:      video.NewPreprocessor(cfg.Width, cfg.Height),
		motion:   motion,
		scorer:   deps.Scorer,
		rate:     playback.NewRateController(cfg),
		renderer: deps.Renderer,
		display:  deps.Display,
		state:    StateIdle,
	}, nil
}

// AddObserver registers o for every subsequent FrameResult
func (d *Driver) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

// State returns the current lifecycle state. Safe from any goroutine.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Run processes frames until the stream ends, the frame limit is reached, the
// viewer stops playback, ctx is cancelled or the source fails. Only a source
// failure is returned as an error; every other ending is a normal stop.
// Source and display are closed before Run returns.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	if d.State() != StateIdle {
		return nil, fmt.Errorf("driver already ran")
	}
	d.setState(StateRunning)
	start := time.Now()

	d.logger.Info().
		Int("stride", d.config.SampleStride).
		Int("width", d.config.Width).
		Int("height", d.config.Height).
		Float64("threshold", d.config.Threshold).
		Int("max_frames", d.config.MaxFrames).
		Msg("playback started")

	summary := &Summary{}
	reason, err := d.loop(ctx, summary)
	if cerr := d.release(); cerr != nil {
		d.logger.Warn().Err(cerr).Msg("failed to release playback resources")
	}

	summary.Reason = reason
	summary.FramesDecoded = d.sampler.Decoded()
	summary.ScoringFailures = d.scorer.Failures()
	summary.Elapsed = time.Since(start)

	if err != nil {
		d.setState(StateError)
		summary.State = StateError
		summary.Err = err
		d.logSummary(summary)
		return summary, err
	}

	d.setState(StateStopped)
	summary.State = StateStopped
	d.logSummary(summary)
	return summary, nil
}

func (d *Driver) loop(ctx context.Context, summary *Summary) (StopReason, error) {
	for {
		if ctx.Err() != nil {
			return StopCancelled, nil
		}

		sf, err := d.sampler.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, video.ErrEndOfStream):
				return StopEndOfStream, nil
			case errors.Is(err, video.ErrFrameLimit):
				return StopFrameLimit, nil
			case ctx.Err() != nil:
				return StopCancelled, nil
			default:
				return StopFailed, fmt.Errorf("frame source failed: %w", err)
			}
		}

		summary.FramesSampled++
		result, frame, err := d.process(ctx, sf, summary.FramesSampled)
		if err != nil {
			return StopFailed, err
		}
		if result.Highlight {
			summary.Highlights++
		}
		for _, o := range d.observers {
			o.Observe(result)
		}

		if err := d.display.Show(ctx, frame, result.Delay); err != nil {
			switch {
			case errors.Is(err, playback.ErrStopRequested):
				return StopUserRequested, nil
			case ctx.Err() != nil:
				return StopCancelled, nil
			default:
				return StopFailed, fmt.Errorf("display failed: %w", err)
			}
		}
	}
}

// process scores one sampled frame and renders the banner onto its normalized copy
func (d *Driver) process(ctx context.Context, sf video.SampledFrame, seq int) (FrameResult, *image.RGBA, error) {
	frame, err := d.pre.Normalize(sf.Image)
	if err != nil {
		return FrameResult{}, nil, fmt.Errorf("failed to normalize frame %d: %w", sf.Index, err)
	}
	gray, features, err := vision.Extract(frame)
	defer gray.Close()
	if err != nil {
		return FrameResult{}, nil, fmt.Errorf("failed to extract features from frame %d: %w", sf.Index, err)
	}

	motion := d.motion.Update(gray)
	prob := d.scorer.Score(ctx, features.Vector())
	fused := ai.Fuse(d.config.FusionWeight, prob, motion)
	delay := d.rate.DelayFor(fused)

	d.renderer.Render(frame, fused)

	result := FrameResult{
		Index:       sf.Index,
		Sequence:    seq,
		Features:    features,
		Motion:      motion,
		Probability: prob,
		Fused:       fused,
		Delay:       delay,
		Highlight:   d.rate.IsHighlight(fused),
	}

	d.logger.Debug().
		Int("frame", result.Index).
		Float64("mean", features.MeanIntensity).
		Float64("std", features.StdIntensity).
		Float64("edges", features.EdgeCount).
		Float64("motion", motion).
		Float64("probability", prob).
		Float64("fused", fused).
		Dur("delay", delay).
		Msg("frame scored")

	return result, frame, nil
}

// release closes the source, display and motion state exactly once
func (d *Driver) release() error {
	d.closeOnce.Do(func() {
		d.closeErr = errors.Join(d.source.Close(), d.display.Close(), d.motion.Close())
	})
	return d.closeErr
}

func (d *Driver) logSummary(s *Summary) {
	event := d.logger.Info()
	if s.State == StateError {
		event = d.logger.Error().Err(s.Err)
	}
	event.
		Str("state", s.State.String()).
		Str("reason", string(s.Reason)).
		Int("decoded", s.FramesDecoded).
		Int("sampled", s.FramesSampled).
		Int("scoring_failures", s.ScoringFailures).
		Int("highlights", s.Highlights).
		Dur("elapsed", s.Elapsed).
		Msg("playback finished")
}
