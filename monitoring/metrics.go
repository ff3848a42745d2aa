// Package monitoring 提供预测服务的运行指标
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 预测类型标签
const (
	KindPoint = "point"
	KindCurve = "curve"
)

// Metrics 指标收集器
type Metrics struct {
	registry *prometheus.Registry

	Predictions      *prometheus.CounterVec
	PredictionErrors *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	ModelLoads       *prometheus.CounterVec
	InputRejections  *prometheus.CounterVec
}

// NewMetrics 创建指标收集器, 使用独立的 registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strength",
			Name:      "predictions_total",
			Help:      "Model inference calls by kind.",
		}, []string{"kind"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strength",
			Name:      "prediction_errors_total",
			Help:      "Failed model inference calls by kind.",
		}, []string{"kind"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "strength",
			Name:      "prediction_duration_seconds",
			Help:      "Model inference latency by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"kind"}),
		ModelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strength",
			Name:      "model_loads_total",
			Help:      "Model artifact load attempts by result.",
		}, []string{"result"}),
		InputRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strength",
			Name:      "input_rejections_total",
			Help:      "Mixture inputs rejected for being out of range, by field.",
		}, []string{"field"}),
	}

	registry.MustRegister(
		m.Predictions,
		m.PredictionErrors,
		m.Duration,
		m.ModelLoads,
		m.InputRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrediction 记录一次推理
func (m *Metrics) ObservePrediction(kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(kind).Inc()
	m.Duration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	if err != nil {
		m.PredictionErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveModelLoad 记录模型加载结果
func (m *Metrics) ObserveModelLoad(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ModelLoads.WithLabelValues(result).Inc()
}

// ObserveRejection 记录被拒绝的输入
func (m *Metrics) ObserveRejection(field string) {
	if m == nil {
		return
	}
	m.InputRejections.WithLabelValues(field).Inc()
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
