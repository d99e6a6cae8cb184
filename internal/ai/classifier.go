package ai

import "context"

// NeutralProbability replaces a classifier result that could not be obtained
const NeutralProbability = 0.5

// Classifier is an externally trained binary model over a fixed-length
// numeric feature vector
type Classifier interface {
	// InputLength reports the expected vector length; ok is false when the
	// model does not fix it
	InputLength() (n int, ok bool)

	// PredictProba returns the probability of the positive class
	PredictProba(ctx context.Context, features []float64) (float64, error)

	Close() error
}

// AdaptLength reconciles features with the classifier's expected length:
// shorter vectors are right-padded with zeros, longer ones keep their leading
// n values. With an unknown length the features pass through unchanged. The
// result never aliases the input.
func AdaptLength(features []float64, n int, known bool) []float64 {
	if !known || n < 0 {
		n = len(features)
	}

	out := make([]float64, n)
	copy(out, features)
	return out
}
