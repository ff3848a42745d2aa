package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"concretestrength/ml"
	"concretestrength/prediction"
	"concretestrength/ui"
)

type handlers struct {
	deps     Dependencies
	upgrader websocket.Upgrader
}

func newHandlers(deps Dependencies) *handlers {
	return &handlers{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /{$}", h.handleCompute)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", handleSchema)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/chart.svg", h.handleChart)
	mux.Handle("GET /static/", ui.StaticHandler())
	if h.deps.Metrics != nil {
		mux.Handle("GET /metrics", h.deps.Metrics.Handler())
	}
}

// predictResponse is the JSON shape of a computed prediction.
type predictResponse struct {
	Input        ml.MixtureInput         `json:"input"`
	FeatureNames []string                `json:"feature_names"`
	Features     ml.FeatureRow           `json:"features"`
	Strength     float64                 `json:"strength"`
	Curve        []prediction.CurvePoint `json:"curve"`
}

func newPredictResponse(result *prediction.Result) predictResponse {
	return predictResponse{
		Input:        result.Input,
		FeatureNames: ml.FeatureNames(),
		Features:     result.Row,
		Strength:     result.Strength,
		Curve:        result.Curve,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields":         ml.InputFields(),
		"feature_names":  ml.FeatureNames(),
		"reference_ages": prediction.ReferenceAges,
	})
}

func (h *handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	if h.deps.Provider == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "model provider not initialized"})
		return
	}
	info, ok := h.deps.Provider.Info()
	if !ok {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "model not loaded"})
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, ui.View{Input: ml.DefaultMixture()})
}

// handleCompute is the "Calcular Resistencia" action.
func (h *handlers) handleCompute(w http.ResponseWriter, r *http.Request) {
	tag := h.language(r)
	labels := h.deps.Renderer.Localizer().Labels(tag)

	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, ui.View{Input: ml.DefaultMixture(), Error: labels.InvalidInput})
		return
	}

	input, err := ui.ReadInput(r.PostForm)
	if err != nil {
		h.deps.Metrics.ObserveRejection(rejectionLabel(err))
		h.renderPage(w, r, http.StatusBadRequest, ui.View{Input: input, Error: rejectionMessage(labels, err)})
		return
	}

	result, err := h.deps.Service.Predict(r.Context(), input)
	if err != nil {
		h.logger(r).Error("compute failed", zap.Error(err))
		h.renderPage(w, r, http.StatusInternalServerError, ui.View{Input: input, Error: labels.PredictionFailed})
		return
	}

	h.renderPage(w, r, http.StatusOK, ui.View{Input: input, Result: result})
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	input, err := decodeMixture(r)
	if err != nil {
		h.deps.Metrics.ObserveRejection(rejectionLabel(err))
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: rejectedField(err)})
		return
	}

	result, err := h.deps.Service.Predict(r.Context(), input)
	if err != nil {
		h.logger(r).Error("predict failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
		return
	}

	respondJSON(w, http.StatusOK, newPredictResponse(result))
}

func (h *handlers) handleChart(w http.ResponseWriter, r *http.Request) {
	input, err := ui.ReadInput(r.URL.Query())
	if err != nil {
		h.deps.Metrics.ObserveRejection(rejectionLabel(err))
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: rejectedField(err)})
		return
	}

	result, err := h.deps.Service.Predict(r.Context(), input)
	if err != nil {
		h.logger(r).Error("chart prediction failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
		return
	}

	var buf bytes.Buffer
	labels := h.deps.Renderer.Localizer().Labels(h.language(r))
	if err := ui.RenderChart(&buf, result, labels); err != nil {
		h.logger(r).Error("chart render failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "chart rendering failed"})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

func (h *handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, view ui.View) {
	var buf bytes.Buffer
	if err := h.deps.Renderer.RenderPage(&buf, h.language(r), view); err != nil {
		h.logger(r).Error("page render failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// language picks the page language: ?lang= wins over Accept-Language.
func (h *handlers) language(r *http.Request) language.Tag {
	accept := r.URL.Query().Get("lang")
	if accept == "" {
		accept = r.Header.Get("Accept-Language")
	}
	return h.deps.Renderer.Localizer().Match(accept)
}

func (h *handlers) logger(r *http.Request) *zap.Logger {
	return h.deps.Logger.With(zap.String("request_id", GetRequestID(r.Context())))
}

// decodeMixture reads a JSON body of the form {"mixture": {...}}. Fields
// left out keep their default value.
func decodeMixture(r *http.Request) (ml.MixtureInput, error) {
	payload := struct {
		Mixture ml.MixtureInput `json:"mixture"`
	}{Mixture: ml.DefaultMixture()}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return payload.Mixture, fmt.Errorf("invalid request body: %w", err)
	}
	if err := ml.ValidateInput(payload.Mixture); err != nil {
		return payload.Mixture, err
	}
	return payload.Mixture, nil
}

func rejectedField(err error) string {
	var boundsErr *ml.BoundsError
	if errors.As(err, &boundsErr) {
		return boundsErr.Field.Key
	}
	var inputErr *ui.InputError
	if errors.As(err, &inputErr) {
		return inputErr.Field
	}
	return ""
}

// rejectionLabel is the metrics label for a rejected input. Bodies that do
// not decode have no field and count as "body".
func rejectionLabel(err error) string {
	if field := rejectedField(err); field != "" {
		return field
	}
	return "body"
}

func rejectionMessage(labels ui.Labels, err error) string {
	var boundsErr *ml.BoundsError
	if errors.As(err, &boundsErr) {
		return fmt.Sprintf("%s: %s [%g, %g]", labels.InvalidInput, fieldLabel(labels, boundsErr.Field.Key), boundsErr.Field.Min, boundsErr.Field.Max)
	}
	var inputErr *ui.InputError
	if errors.As(err, &inputErr) {
		return fmt.Sprintf("%s: %s", labels.InvalidInput, fieldLabel(labels, inputErr.Field))
	}
	return labels.InvalidInput
}

func fieldLabel(labels ui.Labels, key string) string {
	if label, ok := labels.Fields[key]; ok {
		return label
	}
	return key
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
