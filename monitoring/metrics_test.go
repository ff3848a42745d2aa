package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObservePrediction(t *testing.T) {
	m := NewMetrics()

	m.ObservePrediction(KindPoint, time.Now(), nil)
	m.ObservePrediction(KindPoint, time.Now(), errors.New("boom"))
	m.ObservePrediction(KindCurve, time.Now(), nil)
	m.ObserveModelLoad(nil)
	m.ObserveRejection("cement")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues(KindPoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionErrors.WithLabelValues(KindPoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(KindCurve)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InputRejections.WithLabelValues("cement")))
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.ObservePrediction(KindPoint, time.Now(), nil)
	m.ObserveModelLoad(errors.New("boom"))
	m.ObserveRejection("age")
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObservePrediction(KindCurve, time.Now(), nil)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `strength_predictions_total{kind="curve"} 1`))
}
