package prediction

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretestrength/ml"
	"concretestrength/monitoring"
)

// recordingModel returns 10*log_age + cement/100 for each row and remembers
// every batch it was given.
type recordingModel struct {
	batches [][][]float64
	err     error
	short   bool
}

func (m *recordingModel) FeatureNames() []string { return ml.FeatureNames() }

func (m *recordingModel) Predict(rows [][]float64) ([]float64, error) {
	m.batches = append(m.batches, rows)
	if m.err != nil {
		return nil, m.err
	}
	if m.short {
		return []float64{}, nil
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = 10*row[7] + row[0]/100
	}
	return out, nil
}

func referenceMixture() ml.MixtureInput {
	return ml.MixtureInput{
		Cement:          300,
		Water:           180,
		CoarseAggregate: 900,
		FineAggregate:   700,
		AgeDays:         28,
	}
}

func TestPredictCurveReturnsReferenceAgesInOrder(t *testing.T) {
	model := &recordingModel{}
	svc := NewService(model)
	row := ml.BuildFeatures(referenceMixture())

	curve, err := svc.PredictCurve(context.Background(), row, nil)
	require.NoError(t, err)
	require.Len(t, curve, 9)

	ages := make([]int, len(curve))
	for i, point := range curve {
		ages[i] = point.AgeDays
		assert.InDelta(t, 10*math.Log(float64(point.AgeDays))+3, point.Strength, 1e-9)
	}
	assert.Equal(t, []int{1, 3, 7, 14, 28, 56, 90, 180, 365}, ages)
}

func TestPredictCurveHoldsNonAgeFieldsConstant(t *testing.T) {
	model := &recordingModel{}
	svc := NewService(model)
	row := ml.BuildFeatures(referenceMixture())

	_, err := svc.PredictCurve(context.Background(), row, ReferenceAges)
	require.NoError(t, err)

	require.Len(t, model.batches, 1, "curve must be one batched call")
	batch := model.batches[0]
	require.Len(t, batch, len(ReferenceAges))

	point := row.Vector()
	for i, curveRow := range batch {
		assert.Equal(t, point[:7], curveRow[:7], "row %d", i)
		assert.Equal(t, math.Log(float64(ReferenceAges[i])), curveRow[7])
	}
}

func TestPredictCurveCustomAges(t *testing.T) {
	svc := NewService(&recordingModel{})

	curve, err := svc.PredictCurve(context.Background(), ml.BuildFeatures(referenceMixture()), []int{365, 1})
	require.NoError(t, err)
	require.Len(t, curve, 2)
	assert.Equal(t, 365, curve[0].AgeDays)
	assert.Equal(t, 1, curve[1].AgeDays)
}

func TestPredictPointIsDeterministic(t *testing.T) {
	model, err := ml.LoadModel("", "../models/modelo_concreto.json")
	require.NoError(t, err)
	svc := NewService(model)
	row := ml.BuildFeatures(referenceMixture())

	first, err := svc.PredictPoint(context.Background(), row)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := svc.PredictPoint(context.Background(), row)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredictCombinesPointAndCurve(t *testing.T) {
	model := &recordingModel{}
	metrics := monitoring.NewMetrics()
	svc := NewService(model, WithMetrics(metrics))

	result, err := svc.Predict(context.Background(), referenceMixture())
	require.NoError(t, err)

	assert.Equal(t, ml.BuildFeatures(referenceMixture()), result.Row)
	assert.InDelta(t, 10*math.Log(28)+3, result.Strength, 1e-9)
	require.Len(t, result.Curve, 9)
	assert.Equal(t, result.Strength, result.Curve[4].Strength, "28-day curve point matches point estimate")

	require.Len(t, model.batches, 2)
	assert.Len(t, model.batches[0], 1)
	assert.Equal(t, model.batches[0][0][:7], model.batches[1][0][:7])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues(monitoring.KindPoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues(monitoring.KindCurve)))
}

func TestPredictPropagatesModelErrors(t *testing.T) {
	boom := errors.New("boom")
	metrics := monitoring.NewMetrics()
	svc := NewService(&recordingModel{err: boom}, WithMetrics(metrics))
	row := ml.BuildFeatures(referenceMixture())

	_, err := svc.PredictPoint(context.Background(), row)
	assert.ErrorIs(t, err, boom)

	_, err = svc.PredictCurve(context.Background(), row, nil)
	assert.ErrorIs(t, err, boom)

	result, err := svc.Predict(context.Background(), referenceMixture())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, result)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues(monitoring.KindPoint)))
}

func TestPredictRejectsShortResults(t *testing.T) {
	svc := NewService(&recordingModel{short: true})
	row := ml.BuildFeatures(referenceMixture())

	_, err := svc.PredictPoint(context.Background(), row)
	assert.ErrorIs(t, err, ml.ErrEmptyPrediction)

	_, err = svc.PredictCurve(context.Background(), row, nil)
	assert.ErrorIs(t, err, ml.ErrEmptyPrediction)
}

func TestPredictHonoursCancelledContext(t *testing.T) {
	model := &recordingModel{}
	svc := NewService(model)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Predict(ctx, referenceMixture())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, model.batches)
}
