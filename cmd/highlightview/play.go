package main

import (
	"fmt"
	"os"

	"github.com/keagan/highlightview/internal/ai"
	"github.com/keagan/highlightview/internal/config"
	"github.com/keagan/highlightview/internal/ffmpeg"
	"github.com/keagan/highlightview/internal/gui"
	"github.com/keagan/highlightview/internal/overlays"
	"github.com/keagan/highlightview/internal/pipeline"
	"github.com/keagan/highlightview/internal/playback"
	"github.com/keagan/highlightview/internal/trace"
	"github.com/keagan/highlightview/internal/video"
	"github.com/keagan/highlightview/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	playVideo     string
	playMaxFrames int
	playModel     string
	playStride    int
	playHeadless  bool
	playTrace     string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a video with live highlight scoring",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

var probeCmd = &cobra.Command{
	Use:   "probe [input video]",
	Short: "Print stream metadata and the classifier input length",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	playCmd.Flags().StringVar(&playVideo, "video", "", "input video file")
	playCmd.Flags().IntVar(&playMaxFrames, "max-frames", 0, "stop after this many decoded frames (0 = whole video)")
	playCmd.Flags().StringVar(&playModel, "model", "", "ONNX classifier (overrides classifier.model_path)")
	playCmd.Flags().IntVar(&playStride, "stride", 0, "score every Nth frame (overrides playback.sample_stride)")
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "run without a window, with a progress bar")
	playCmd.Flags().StringVar(&playTrace, "trace", "", "write per-frame scores as NDJSON to this file")
	_ = playCmd.MarkFlagRequired("video")
}

// applyPlayFlags overrides config values with flags the user set explicitly
func applyPlayFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-frames") {
		cfg.Playback.MaxFrames = playMaxFrames
	}
	if flags.Changed("model") {
		cfg.Classifier.ModelPath = playModel
	}
	if flags.Changed("stride") {
		cfg.Playback.SampleStride = playStride
	}
	if playHeadless {
		cfg.Display.Enabled = false
	}
	if flags.Changed("trace") {
		cfg.Trace.Path = playTrace
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	applyPlayFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg)
	if err != nil {
		return fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	src, err := video.Open(ctx, exec, playVideo)
	if err != nil {
		return err
	}
	info := src.Info()

	log.Info().
		Str("input", playVideo).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Int("frames", info.FrameCount).
		Str("duration", util.FormatDuration(info.Duration)).
		Msg("stream opened")

	classifier, err := ai.NewONNXClassifier(log.Logger, cfg.Classifier)
	if err != nil {
		src.Close()
		return fmt.Errorf("failed to load classifier: %w", err)
	}
	defer classifier.Close()

	renderer, err := overlays.NewScoreRenderer(overlays.DefaultStyle(cfg.Playback.Threshold))
	if err != nil {
		src.Close()
		return err
	}
	defer renderer.Close()

	tw, err := trace.New(cfg.Trace.Path)
	if err != nil {
		src.Close()
		return err
	}
	defer tw.Close()

	var (
		win     *gui.Window
		display pipeline.Display
	)
	if cfg.Display.Enabled {
		win = gui.NewWindow(log.Logger, cfg.Display.Title, cfg.Playback.Width, cfg.Playback.Height)
		display = win
	} else {
		display = playback.NewHeadless()
	}

	driver, err := pipeline.New(log.Logger, cfg.Playback, pipeline.Deps{
		Source:   src,
		Scorer:   ai.NewAdapter(log.Logger, classifier),
		Renderer: renderer,
		Display:  display,
	})
	if err != nil {
		src.Close()
		display.Close()
		return err
	}

	if cfg.Trace.Path != "" {
		driver.AddObserver(pipeline.NewTraceObserver(log.Logger, tw))
		log.Info().Str("path", cfg.Trace.Path).Msg("writing score trace")
	}

	var runErr error
	if win == nil {
		progress := pipeline.NewProgressObserver(os.Stderr,
			pipeline.ExpectedSamples(info.FrameCount, cfg.Playback.SampleStride, cfg.Playback.MaxFrames))
		driver.AddObserver(progress)
		_, runErr = driver.Run(ctx)
		_ = progress.Finish()
		fmt.Fprintln(os.Stderr)
	} else {
		// the window owns the main goroutine; scoring runs beside it and
		// closes the window when it stops
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, runErr = driver.Run(ctx)
		}()

		win.Run()
		win.Stop()
		<-done
	}

	if cfg.Trace.Path != "" {
		log.Info().Str("path", cfg.Trace.Path).Int("records", tw.Written()).Msg("score trace finished")
	}
	return runErr
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)

	exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg)
	if err != nil {
		return fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	info, err := exec.ProbeVideo(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file:        %s\n", info.FilePath)
	fmt.Fprintf(out, "duration:    %s\n", util.FormatDuration(info.Duration))
	fmt.Fprintf(out, "size:        %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(out, "fps:         %.3f (%s per frame)\n", info.FPS, util.FrameDuration(info.FPS))
	fmt.Fprintf(out, "frames:      %d\n", info.FrameCount)
	fmt.Fprintf(out, "video codec: %s\n", info.VideoCodec)
	if info.HasAudio {
		fmt.Fprintf(out, "audio codec: %s\n", info.AudioCodec)
	}
	fmt.Fprintf(out, "sampled:     %d (stride %d)\n",
		pipeline.ExpectedSamples(info.FrameCount, cfg.Playback.SampleStride, cfg.Playback.MaxFrames),
		cfg.Playback.SampleStride)

	classifier, err := ai.NewONNXClassifier(log.Logger, cfg.Classifier)
	if err != nil {
		fmt.Fprintf(out, "classifier:  unavailable (%v)\n", err)
		return nil
	}
	defer classifier.Close()

	if n, ok := classifier.InputLength(); ok {
		fmt.Fprintf(out, "classifier:  %d input features\n", n)
	} else {
		fmt.Fprintf(out, "classifier:  input length unknown\n")
	}
	return nil
}
