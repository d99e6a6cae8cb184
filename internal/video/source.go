// Package video turns a decodable stream into sampled, canonical-size frames.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var (
	// ErrEndOfStream signals that the source is exhausted. It is not a failure.
	ErrEndOfStream = errors.New("end of stream")

	// ErrFrameLimit signals that the configured frame-count ceiling was reached
	ErrFrameLimit = errors.New("frame limit reached")
)

// StreamOpenError reports an input that could not be opened for decoding
type StreamOpenError struct {
	Path string
	Err  error
}

func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("cannot open video %q: %v", e.Path, e.Err)
}

func (e *StreamOpenError) Unwrap() error {
	return e.Err
}

// Source yields decoded frames in stream order
type Source interface {
	// Next decodes the next frame. Returns ErrEndOfStream when exhausted.
	Next(ctx context.Context) (*image.RGBA, error)
	// Skip decodes the next frame and discards it
	Skip(ctx context.Context) error
	Close() error
}
