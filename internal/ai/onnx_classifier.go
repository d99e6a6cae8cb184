package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/keagan/highlightview/internal/config"
	"github.com/keagan/highlightview/internal/logging"
	"github.com/keagan/highlightview/pkg/util"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// ErrInputLength is returned when a feature vector does not match the model input
var ErrInputLength = errors.New("feature vector length does not match model input")

// ONNXClassifier runs a binary classifier exported to ONNX (for example a
// scikit-learn model converted with skl2onnx). The model takes a float32
// tensor of shape [1, n] and produces class probabilities of shape [1, k].
type ONNXClassifier struct {
	logger        zerolog.Logger
	modelPath     string
	inputName     string
	outputName    string
	positiveIndex int
	inputLength   int
	lengthKnown   bool
	ownsEnv       bool
	session       *ort.DynamicAdvancedSession
}

// NewONNXClassifier loads the model described by cfg
func NewONNXClassifier(logger zerolog.Logger, cfg config.ClassifierConfig) (*ONNXClassifier, error) {
	if !util.FileExists(cfg.ModelPath) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	ownsEnv := false
	if !ort.IsInitialized() {
		if cfg.RuntimeLibrary != "" {
			ort.SetSharedLibraryPath(cfg.RuntimeLibrary)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
		ownsEnv = true
	}

	c := &ONNXClassifier{
		logger:        logger.With().Str("component", logging.ComponentClassifier).Logger(),
		modelPath:     cfg.ModelPath,
		positiveIndex: cfg.PositiveIndex,
		ownsEnv:       ownsEnv,
	}

	if err := c.load(cfg); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *ONNXClassifier) load(cfg config.ClassifierConfig) error {
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to inspect model: %w", err)
	}

	input, err := pickTensor(inputs, cfg.InputName, "input")
	if err != nil {
		return err
	}
	output, err := pickOutput(outputs, cfg.OutputName)
	if err != nil {
		return err
	}

	c.inputName = input.Name
	c.outputName = output.Name
	c.inputLength, c.lengthKnown = featureLength(input.Dimensions)

	sess, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{c.inputName},
		[]string{c.outputName},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create classifier session: %w", err)
	}
	c.session = sess

	event := c.logger.Info().
		Str("model", cfg.ModelPath).
		Str("input", c.inputName).
		Str("output", c.outputName)
	if c.lengthKnown {
		event = event.Int("input_length", c.inputLength)
	} else {
		event = event.Str("input_length", "dynamic")
	}
	event.Msg("classifier loaded")

	return nil
}

// pickTensor returns the tensor called name, or the first one when name is empty
func pickTensor(infos []ort.InputOutputInfo, name, kind string) (ort.InputOutputInfo, error) {
	if len(infos) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("model has no %s tensors", kind)
	}
	if name == "" {
		return infos[0], nil
	}
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return ort.InputOutputInfo{}, fmt.Errorf("model has no %s named %q", kind, name)
}

// pickOutput returns the output called name. With no name it takes the first
// float tensor, which skips the int64 label output skl2onnx emits first. A
// model exported with the default zipmap has only a sequence of maps for its
// probabilities and is rejected.
func pickOutput(infos []ort.InputOutputInfo, name string) (ort.InputOutputInfo, error) {
	if name != "" {
		return pickTensor(infos, name, "output")
	}
	for _, info := range infos {
		if info.OrtValueType != ort.ONNXTypeTensor {
			continue
		}
		switch info.DataType {
		case ort.TensorElementDataTypeFloat, ort.TensorElementDataTypeDouble:
			return info, nil
		}
	}
	return ort.InputOutputInfo{}, fmt.Errorf("model has no float tensor output; export it with zipmap disabled or set output_name")
}

// featureLength reads the feature dimension from an input shape like [1, n].
// Symbolic or missing dimensions are reported as unknown.
func featureLength(shape ort.Shape) (int, bool) {
	if len(shape) == 0 {
		return 0, false
	}
	n := shape[len(shape)-1]
	if len(shape) == 1 || n <= 0 {
		return 0, false
	}
	return int(n), true
}

// InputLength reports the feature count the model was exported with
func (c *ONNXClassifier) InputLength() (int, bool) {
	return c.inputLength, c.lengthKnown
}

// PredictProba runs one inference and returns the positive-class probability
func (c *ONNXClassifier) PredictProba(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.session == nil {
		return 0, fmt.Errorf("classifier is closed")
	}
	if c.lengthKnown && len(features) != c.inputLength {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInputLength, len(features), c.inputLength)
	}

	data := make([]float32, len(features))
	for i, v := range features {
		data[i] = float32(v)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	// nil outputs are allocated by the runtime
	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{in}, outputs); err != nil {
		return 0, fmt.Errorf("classifier inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	probs, err := tensorValues(outputs[0])
	if err != nil {
		return 0, err
	}
	if c.positiveIndex >= len(probs) {
		return 0, fmt.Errorf("output %q has %d values, positive index is %d",
			c.outputName, len(probs), c.positiveIndex)
	}

	return probs[c.positiveIndex], nil
}

func tensorValues(v ort.Value) ([]float64, error) {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		data := t.GetData()
		out := make([]float64, len(data))
		for i, p := range data {
			out[i] = float64(p)
		}
		return out, nil
	case *ort.Tensor[float64]:
		return append([]float64(nil), t.GetData()...), nil
	default:
		return nil, fmt.Errorf("unsupported classifier output type %T", v)
	}
}

// Close releases the session and, if this classifier started it, the runtime
func (c *ONNXClassifier) Close() error {
	if c.session != nil {
		c.logger.Debug().Str("model", c.modelPath).Msg("closing classifier session")
		if err := c.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		c.session = nil
	}

	if c.ownsEnv {
		c.ownsEnv = false
		if err := ort.DestroyEnvironment(); err != nil {
			return fmt.Errorf("failed to destroy ONNX environment: %w", err)
		}
	}

	return nil
}
