// Package prediction turns feature rows into strength estimates.
package prediction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"concretestrength/ml"
	"concretestrength/monitoring"
)

// ReferenceAges are the curing ages, in days, of the aging curve.
var ReferenceAges = []int{1, 3, 7, 14, 28, 56, 90, 180, 365}

// CurvePoint is one estimate on the aging curve.
type CurvePoint struct {
	AgeDays  int     `json:"age"`
	Strength float64 `json:"strength"`
}

// Result is the outcome of one compute action. It is never stored.
type Result struct {
	Input    ml.MixtureInput `json:"input"`
	Row      ml.FeatureRow   `json:"features"`
	Strength float64         `json:"strength"`
	Curve    []CurvePoint    `json:"curve"`
}

// Service runs inference against a loaded model.
type Service struct {
	model   ml.Regressor
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

func NewService(model ml.Regressor, opts ...Option) *Service {
	s := &Service{
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictPoint scores a single row.
func (s *Service) PredictPoint(ctx context.Context, row ml.FeatureRow) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	started := time.Now()
	out, err := s.model.Predict([][]float64{row.Vector()})
	if err == nil && len(out) == 0 {
		err = ml.ErrEmptyPrediction
	}
	s.metrics.ObservePrediction(monitoring.KindPoint, started, err)
	if err != nil {
		s.logger.Error("point prediction failed", zap.Error(err))
		return 0, fmt.Errorf("predict point: %w", err)
	}
	return out[0], nil
}

// PredictCurve scores row once per age in a single batched model call. Rows
// differ from row only in LogAge. Nil or empty ages means ReferenceAges.
func (s *Service) PredictCurve(ctx context.Context, row ml.FeatureRow, ages []int) ([]CurvePoint, error) {
	if len(ages) == 0 {
		ages = ReferenceAges
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([][]float64, len(ages))
	for i, age := range ages {
		rows[i] = row.WithAge(age).Vector()
	}

	started := time.Now()
	out, err := s.model.Predict(rows)
	if err == nil && len(out) != len(ages) {
		err = fmt.Errorf("%w: expected %d values, got %d", ml.ErrEmptyPrediction, len(ages), len(out))
	}
	s.metrics.ObservePrediction(monitoring.KindCurve, started, err)
	if err != nil {
		s.logger.Error("curve prediction failed", zap.Int("points", len(ages)), zap.Error(err))
		return nil, fmt.Errorf("predict curve: %w", err)
	}

	curve := make([]CurvePoint, len(ages))
	for i, age := range ages {
		curve[i] = CurvePoint{AgeDays: age, Strength: out[i]}
	}
	return curve, nil
}

// Predict builds the feature row for input and computes the point estimate
// and the reference aging curve. Input is assumed to be already validated.
func (s *Service) Predict(ctx context.Context, input ml.MixtureInput) (*Result, error) {
	row := ml.BuildFeatures(input)

	strength, err := s.PredictPoint(ctx, row)
	if err != nil {
		return nil, err
	}
	curve, err := s.PredictCurve(ctx, row, ReferenceAges)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("prediction computed",
		zap.Int("age", input.AgeDays),
		zap.Float64("strength", strength))

	return &Result{
		Input:    input,
		Row:      row,
		Strength: strength,
		Curve:    curve,
	}, nil
}
