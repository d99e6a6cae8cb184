package pipeline

import (
	"io"

	"github.com/keagan/highlightview/internal/logging"
	"github.com/keagan/highlightview/internal/trace"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// TraceObserver writes every FrameResult to a trace file
type TraceObserver struct {
	logger zerolog.Logger
	writer *trace.Writer
	failed bool
}

func NewTraceObserver(logger zerolog.Logger, w *trace.Writer) *TraceObserver {
	return &TraceObserver{
		logger: logger.With().Str("component", logging.ComponentTrace).Logger(),
		writer: w,
	}
}

func (t *TraceObserver) Observe(r FrameResult) {
	err := t.writer.Write(trace.Record{
		Frame:       r.Index,
		Mean:        r.Features.MeanIntensity,
		Std:         r.Features.StdIntensity,
		Edges:       r.Features.EdgeCount,
		Motion:      r.Motion,
		Probability: r.Probability,
		Fused:       r.Fused,
		DelayMS:     r.Delay.Milliseconds(),
		Highlight:   r.Highlight,
	})
	if err != nil && !t.failed {
		t.failed = true
		t.logger.Warn().Err(err).Msg("failed to write trace record, further errors suppressed")
	}
}

// ProgressObserver draws a progress bar of sampled frames
type ProgressObserver struct {
	bar *progressbar.ProgressBar
}

// NewProgressObserver expects total sampled frames; total <= 0 shows a spinner
func NewProgressObserver(w io.Writer, total int) *ProgressObserver {
	if total <= 0 {
		total = -1
	}
	return &ProgressObserver{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Scoring"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
		),
	}
}

func (p *ProgressObserver) Observe(r FrameResult) {
	_ = p.bar.Set(r.Sequence)
}

// Finish completes the bar
func (p *ProgressObserver) Finish() error {
	return p.bar.Finish()
}

// ExpectedSamples estimates how many frames a stride and ceiling will sample
// from a stream of frameCount frames; 0 when the count is unknown
func ExpectedSamples(frameCount, stride, maxFrames int) int {
	if maxFrames > 0 && (frameCount <= 0 || maxFrames < frameCount) {
		frameCount = maxFrames
	}
	if frameCount <= 0 || stride < 1 {
		return 0
	}
	return frameCount / stride
}
