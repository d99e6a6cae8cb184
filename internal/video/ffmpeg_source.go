package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/keagan/highlightview/internal/ffmpeg"
)

// FFmpegSource decodes a file through an ffmpeg subprocess
type FFmpegSource struct {
	decoder *ffmpeg.Decoder
	info    *ffmpeg.VideoInfo
	buf     []byte
}

// Open probes path and starts decoding it. Any failure is a *StreamOpenError.
func Open(ctx context.Context, exec *ffmpeg.Executor, path string) (*FFmpegSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &StreamOpenError{Path: path, Err: err}
	}

	info, err := exec.ProbeVideo(ctx, path)
	if err != nil {
		return nil, &StreamOpenError{Path: path, Err: err}
	}

	dec, err := exec.Decode(ctx, info)
	if err != nil {
		return nil, &StreamOpenError{Path: path, Err: err}
	}

	return &FFmpegSource{
		decoder: dec,
		info:    info,
		buf:     make([]byte, info.FrameSize()),
	}, nil
}

// Info returns the probed stream metadata
func (s *FFmpegSource) Info() *ffmpeg.VideoInfo {
	return s.info
}

func (s *FFmpegSource) read(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.decoder.ReadFrame(s.buf)
	if errors.Is(err, io.EOF) {
		return ErrEndOfStream
	}
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	return nil
}

func (s *FFmpegSource) Next(ctx context.Context) (*image.RGBA, error) {
	if err := s.read(ctx); err != nil {
		return nil, err
	}
	return RGBFromBytes(s.buf, s.info.Width, s.info.Height), nil
}

func (s *FFmpegSource) Skip(ctx context.Context) error {
	return s.read(ctx)
}

func (s *FFmpegSource) Close() error {
	return s.decoder.Close()
}

// RGBFromBytes copies packed rgb24 samples into a new opaque RGBA image
func RGBFromBytes(pix []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i+2 < len(pix) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
