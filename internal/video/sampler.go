package video

import (
	"context"
	"image"
)

// SampledFrame is a decoded frame chosen by the stride policy
type SampledFrame struct {
	Index int // 1-based position in decode order
	Image *image.RGBA
}

// Sampler forwards every stride-th decoded frame and discards the rest
type Sampler struct {
	src       Source
	stride    int
	maxFrames int
	decoded   int
}

// NewSampler wraps src. maxFrames <= 0 disables the ceiling.
func NewSampler(src Source, stride, maxFrames int) *Sampler {
	if stride < 1 {
		stride = 1
	}
	return &Sampler{src: src, stride: stride, maxFrames: maxFrames}
}

// Next returns the next sampled frame. The ceiling is checked against the
// decoded-frame counter before the stride test, so it ends iteration with
// ErrFrameLimit even on a frame that would have been skipped.
func (s *Sampler) Next(ctx context.Context) (SampledFrame, error) {
	for {
		if s.maxFrames > 0 && s.decoded >= s.maxFrames {
			return SampledFrame{}, ErrFrameLimit
		}

		next := s.decoded + 1
		if next%s.stride != 0 {
			if err := s.src.Skip(ctx); err != nil {
				return SampledFrame{}, err
			}
			s.decoded = next
			continue
		}

		img, err := s.src.Next(ctx)
		if err != nil {
			return SampledFrame{}, err
		}
		s.decoded = next
		return SampledFrame{Index: next, Image: img}, nil
	}
}

// Decoded returns how many frames were pulled from the source so far
func (s *Sampler) Decoded() int {
	return s.decoded
}
