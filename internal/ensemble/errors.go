package ensemble

import "errors"

// ErrInvalidInput marks a structurally malformed feature vector. It is
// the only request-fatal condition: every other failure is recovered by
// skipping the affected model.
var ErrInvalidInput = errors.New("invalid feature vector")

// SkipReason says why a model did not contribute to a result.
type SkipReason string

const (
	// SkipMissingFeatures: the request's vector lacks features this
	// model requires. The model may still serve later, richer requests.
	SkipMissingFeatures SkipReason = "missing_features"
	// SkipPreprocessFailed: scaling the feature subset failed.
	SkipPreprocessFailed SkipReason = "preprocess_failed"
	// SkipInferenceFailed: the model ran but produced no usable value.
	SkipInferenceFailed SkipReason = "inference_failed"
)

// Skip records one model left out of one request.
type Skip struct {
	ModelID string     `json:"model_id"`
	Reason  SkipReason `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
}
