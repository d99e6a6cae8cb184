package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keagan/highlightview/pkg/util"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Playback   PlaybackConfig   `yaml:"playback"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Display    DisplayConfig    `yaml:"display"`
	Trace      TraceConfig      `yaml:"trace"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
}

// PlaybackConfig fixes sampling, canonical frame size, fusion and pacing.
// It is copied by value into the pipeline and never mutated after startup.
type PlaybackConfig struct {
	SampleStride int     `yaml:"sample_stride"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	LowDelayMS   int     `yaml:"low_delay_ms"`
	HighDelayMS  int     `yaml:"high_delay_ms"`
	Threshold    float64 `yaml:"threshold"`
	FusionWeight float64 `yaml:"fusion_weight"`
	MaxFrames    int     `yaml:"max_frames"` // 0 disables the ceiling
}

// ClassifierConfig locates the ONNX model and its tensors. The default
// output_name "probabilities" is the float [1, k] output skl2onnx produces
// with zipmap disabled (options={"zipmap": False}); the default zipmap export
// yields a sequence of maps instead, which is not supported. An empty
// output_name selects the first float tensor output. An empty input_name
// selects the first input.
type ClassifierConfig struct {
	ModelPath      string `yaml:"model_path"`
	InputName      string `yaml:"input_name"`
	OutputName     string `yaml:"output_name"`
	PositiveIndex  int    `yaml:"positive_index"`
	RuntimeLibrary string `yaml:"runtime_library"`
}

type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"`
}

type TraceConfig struct {
	Path string `yaml:"path"`
}

// DefaultPlayback returns the playback tuple the highlight model was tuned against
func DefaultPlayback() PlaybackConfig {
	return PlaybackConfig{
		SampleStride: 3,
		Width:        800,
		Height:       450,
		LowDelayMS:   25,
		HighDelayMS:  80,
		Threshold:    0.6,
		FusionWeight: 0.5,
	}
}

// Validate checks the playback invariants
func (p PlaybackConfig) Validate() error {
	if p.SampleStride < 1 {
		return fmt.Errorf("sample_stride must be >= 1, got %d", p.SampleStride)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("canonical size must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.LowDelayMS < 0 || p.HighDelayMS < 0 {
		return fmt.Errorf("delays must be non-negative, got %d/%d ms", p.LowDelayMS, p.HighDelayMS)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %v", p.Threshold)
	}
	if p.FusionWeight < 0 || p.FusionWeight > 1 {
		return fmt.Errorf("fusion_weight must be within [0,1], got %v", p.FusionWeight)
	}
	if p.MaxFrames < 0 {
		return fmt.Errorf("max_frames must be >= 0, got %d", p.MaxFrames)
	}
	return nil
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if c.Classifier.ModelPath == "" {
		return fmt.Errorf("classifier: model_path is required")
	}
	if c.Classifier.PositiveIndex < 0 {
		return fmt.Errorf("classifier: positive_index must be >= 0")
	}
	return nil
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := util.EnsureParentDir(path); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns a copy of the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
		Playback: DefaultPlayback(),
		Classifier: ClassifierConfig{
			ModelPath:     "highlight_model.onnx",
			InputName:     "float_input",
			OutputName:    "probabilities",
			PositiveIndex: 1,
		},
		Display: DisplayConfig{
			Enabled: true,
			Title:   "Highlight demo",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./highlightview.yaml",
		"./highlightview.yml",
		filepath.Join(os.Getenv("HOME"), ".highlightview", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
