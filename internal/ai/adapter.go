package ai

import (
	"context"
	"fmt"
	"math"

	"github.com/keagan/highlightview/internal/logging"
	"github.com/rs/zerolog"
)

// Adapter shapes feature vectors for a Classifier and isolates its failures.
// Any error, panic or out-of-range result is replaced by NeutralProbability so
// a single bad inference never stops playback.
type Adapter struct {
	logger     zerolog.Logger
	classifier Classifier
	failures   int
}

func NewAdapter(logger zerolog.Logger, classifier Classifier) *Adapter {
	return &Adapter{
		logger:     logger.With().Str("component", logging.ComponentClassifier).Logger(),
		classifier: classifier,
	}
}

// Score returns the positive-class probability for features
func (a *Adapter) Score(ctx context.Context, features []float64) float64 {
	n, known := a.classifier.InputLength()
	input := AdaptLength(features, n, known)

	prob, err := a.predict(ctx, input)
	if err != nil {
		a.failures++
		event := a.logger.Debug()
		if a.failures == 1 {
			event = a.logger.Warn()
		}
		event.Err(err).
			Int("failures", a.failures).
			Float64("substitute", NeutralProbability).
			Msg("scoring failed, using neutral probability")
		return NeutralProbability
	}

	return prob
}

// Failures returns how many calls fell back to NeutralProbability
func (a *Adapter) Failures() int {
	return a.failures
}

func (a *Adapter) predict(ctx context.Context, input []float64) (prob float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	prob, err = a.classifier.PredictProba(ctx, input)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return 0, fmt.Errorf("probability %v outside [0,1]", prob)
	}
	return prob, nil
}
