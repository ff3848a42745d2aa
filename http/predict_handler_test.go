package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"concretestrength/ml"
	"concretestrength/prediction"
	"concretestrength/ui"
)

func TestHandlePredict(t *testing.T) {
	model := &agingModel{}
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, model))

	body := `{"mixture":{"cement":320,"age":7}}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Input.Cement != 320 || payload.Input.AgeDays != 7 {
		t.Fatalf("unexpected input echo: %+v", payload.Input)
	}
	if payload.Input.Water != ml.DefaultMixture().Water {
		t.Fatalf("omitted field should keep its default, got water=%v", payload.Input.Water)
	}
	if math.Abs(payload.Features.LogAge-math.Log(7)) > 1e-9 {
		t.Fatalf("unexpected log_age: %v", payload.Features.LogAge)
	}
	if math.Abs(payload.Strength-expectedStrength(7)) > 1e-9 {
		t.Fatalf("unexpected strength: %v", payload.Strength)
	}
	if len(payload.Curve) != len(prediction.ReferenceAges) {
		t.Fatalf("expected %d curve points, got %d", len(prediction.ReferenceAges), len(payload.Curve))
	}
	for i, point := range payload.Curve {
		if point.AgeDays != prediction.ReferenceAges[i] {
			t.Fatalf("curve point %d has age %d", i, point.AgeDays)
		}
		if math.Abs(point.Strength-expectedStrength(point.AgeDays)) > 1e-9 {
			t.Fatalf("curve point %d has strength %v", i, point.Strength)
		}
	}
	// one call for the point, one batched call for the whole curve
	if model.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", model.calls)
	}
}

func TestHandlePredictRejectsOutOfRange(t *testing.T) {
	model := &agingModel{}
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, model))

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"mixture":{"water":90}}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var payload errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Field != ml.FieldWater {
		t.Fatalf("expected field %q, got %q", ml.FieldWater, payload.Field)
	}
	if model.calls != 0 {
		t.Fatalf("rejected input must not reach the model, got %d calls", model.calls)
	}
}

func TestHandlePredictRejectsUnknownField(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{}))

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"mixture":{"cemento":300}}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandlePredictModelFailure(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{err: errors.New("boom")}))

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"mixture":{}}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestIndexHasNoBanner(t *testing.T) {
	model := &agingModel{}
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, model))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "Calcular Resistencia") {
		t.Fatal("compute button missing")
	}
	if strings.Contains(page, "Resistencia Predicha") {
		t.Fatal("banner shown before the compute action")
	}
	if !strings.Contains(page, "log_age") {
		t.Fatal("feature summary missing")
	}
	if model.calls != 0 {
		t.Fatalf("page load must not run inference, got %d calls", model.calls)
	}
}

func TestComputeAction(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{}))

	form := ui.EncodeInput(ml.DefaultMixture())
	form.Set("action", "compute")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	// 20 + 5*ln(28) = 36.661...
	if !strings.Contains(page, "Resistencia Predicha: 36,66 MPa") {
		t.Fatalf("banner missing from page")
	}
	if !strings.Contains(page, "<svg") {
		t.Fatal("chart missing from page")
	}
}

func TestComputeActionEnglish(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{}))

	req := httptest.NewRequest(http.MethodPost, "/?lang=en", strings.NewReader(ui.EncodeInput(ml.DefaultMixture()).Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "Predicted Strength: 36.66 MPa") {
		t.Fatalf("english banner missing from page")
	}
}

func TestComputeActionRejectsInput(t *testing.T) {
	model := &agingModel{}
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, model))

	form := ui.EncodeInput(ml.DefaultMixture())
	form.Set(ml.FieldCement, "50")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, `role="alert"`) || strings.Contains(page, "Resistencia Predicha") {
		t.Fatal("expected an error and no banner")
	}
	if model.calls != 0 {
		t.Fatalf("rejected input must not reach the model, got %d calls", model.calls)
	}
}

func TestComputeActionModelFailure(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{err: errors.New("boom")}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(ui.EncodeInput(ml.DefaultMixture()).Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "No se pudo calcular la resistencia") || strings.Contains(page, "Resistencia Predicha") {
		t.Fatal("expected the prediction failure message and no banner")
	}
}

func TestHandleChart(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chart.svg?age=14", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	svg := w.Body.String()
	for _, want := range []string{"<svg", "Días", "Resistencia (MPa)"} {
		if !strings.Contains(svg, want) {
			t.Fatalf("chart missing %q", want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{}))

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"mixture":{}}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `strength_predictions_total{kind="curve"} 1`) {
		t.Fatalf("curve prediction not counted:\n%s", body)
	}
}

func TestRejectionMetricLabels(t *testing.T) {
	deps := newTestDeps(t, &agingModel{})
	handler := NewHandler(DefaultServerConfig(), deps)

	for _, body := range []string{`not json`, `{"mixture":{"water":90}}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	rejections := deps.Metrics.InputRejections
	if got := testutil.CollectAndCount(rejections); got != 2 {
		t.Fatalf("expected 2 label sets, got %d", got)
	}
	if got := testutil.ToFloat64(rejections.WithLabelValues("body")); got != 1 {
		t.Fatalf("expected 1 body rejection, got %v", got)
	}
	if got := testutil.ToFloat64(rejections.WithLabelValues(ml.FieldWater)); got != 1 {
		t.Fatalf("expected 1 water rejection, got %v", got)
	}
}

func TestStaticScript(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestDeps(t, &agingModel{}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "addEventListener") {
		t.Fatal("slider script missing")
	}
}
