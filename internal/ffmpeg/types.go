package ffmpeg

import (
	"fmt"
	"strings"
	"time"
)

// VideoInfo contains metadata about the first video stream of a file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	FrameCount int // 0 when the container does not report it
	Bitrate    int64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// FrameSize returns the byte length of one rgb24 frame
func (v *VideoInfo) FrameSize() int {
	return v.Width * v.Height * 3
}

// DecodeError reports a decoder process that exited abnormally
type DecodeError struct {
	Err    error
	Stderr string
}

func (e *DecodeError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("ffmpeg decode failed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg decode failed: %v: %s", e.Err, msg)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
