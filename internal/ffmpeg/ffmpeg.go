package ffmpeg

import (
	"fmt"
	"os/exec"

	"github.com/keagan/highlightview/internal/config"
	"github.com/keagan/highlightview/internal/logging"
	"github.com/rs/zerolog"
)

// Executor resolves the ffmpeg tool binaries and launches them
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, cfg config.FFmpegConfig) (*Executor, error) {
	ffmpegBin := cfg.BinaryPath
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	ffprobeBin := cfg.ProbePath
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(ffmpegBin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ffprobePath, err := exec.LookPath(ffprobeBin)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", logging.ComponentFFmpeg).Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     cfg.Threads,
	}, nil
}

// decodeArgs builds the argument list that streams the first video stream as rgb24
func (e *Executor) decodeArgs(input string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}

	if e.threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.threads))
	}

	// frame size comes from ffprobe, so rotation metadata must not change it
	args = append(args,
		"-noautorotate",
		"-i", input,
		"-map", "0:v:0",
		"-vsync", "0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	return args
}
