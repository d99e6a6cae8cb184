package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Decoder streams raw rgb24 frames out of an ffmpeg process, in decode order
type Decoder struct {
	exec   *Executor
	info   *VideoInfo
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer

	mu       sync.Mutex
	finished bool
	closed   bool
	waitErr  error
}

// Decode starts a decoder for a stream described by ProbeVideo; info fixes the frame size
func (e *Executor) Decode(ctx context.Context, info *VideoInfo) (*Decoder, error) {
	if info == nil || info.FrameSize() <= 0 {
		return nil, fmt.Errorf("decode requires probed video dimensions")
	}

	args := e.decodeArgs(info.FilePath)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("starting decoder")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &Decoder{
		exec:   e,
		info:   info,
		cmd:    cmd,
		stdout: stdout,
		stderr: &stderr,
	}, nil
}

// ReadFrame fills dst with the next frame. dst must be FrameSize() bytes long.
// Returns io.EOF once the stream is exhausted; a truncated trailing frame also
// counts as end of stream. A decoder that exits abnormally yields *DecodeError.
func (d *Decoder) ReadFrame(dst []byte) error {
	if len(dst) != d.info.FrameSize() {
		return fmt.Errorf("frame buffer is %d bytes, want %d", len(dst), d.info.FrameSize())
	}

	d.mu.Lock()
	finished, waitErr := d.finished, d.waitErr
	d.mu.Unlock()
	if finished {
		if waitErr != nil {
			return waitErr
		}
		return io.EOF
	}

	_, err := io.ReadFull(d.stdout, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		if werr := d.finish(); werr != nil {
			return werr
		}
		return io.EOF
	}
	return fmt.Errorf("failed to read frame: %w", err)
}

// finish reaps the process after stdout hit EOF
func (d *Decoder) finish() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.finished {
		return d.waitErr
	}
	d.finished = true

	if err := d.cmd.Wait(); err != nil && !d.closed {
		d.waitErr = &DecodeError{Err: err, Stderr: d.stderr.String()}
	}
	return d.waitErr
}

// Close stops the decoder process and releases the pipe. Safe to call twice.
func (d *Decoder) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	finished := d.finished
	d.mu.Unlock()

	if !finished {
		// stop early: kill the process rather than draining the rest of the stream
		if d.cmd.Process != nil {
			_ = d.cmd.Process.Kill()
		}
		_ = d.stdout.Close()
		d.mu.Lock()
		d.finished = true
		_ = d.cmd.Wait()
		d.mu.Unlock()
	}

	d.exec.logger.Debug().Str("input", d.info.FilePath).Msg("decoder closed")
	return nil
}
