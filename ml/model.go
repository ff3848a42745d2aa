package ml

import "errors"

var (
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrFeatureMismatch  = errors.New("model feature names do not match")
	ErrEmptyPrediction  = errors.New("model returned no predictions")
)

// Regressor scores feature rows. Each row must be in FeatureNames order.
type Regressor interface {
	Predict(rows [][]float64) ([]float64, error)
	FeatureNames() []string
}

// Model type identifiers as they appear in the artifact "type" field.
const (
	ModelTypeLinear           = "linear"
	ModelTypeGradientBoosting = "gradient_boosting"
	ModelTypeRandomForest     = "random_forest"
)
