package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	forecasts      *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	predictorCalls *prometheus.CounterVec
	anomalies      prometheus.Counter
	cacheHits      *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
}

// New registers the forecast metrics on reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_forecast_requests_total",
				Help: "Forecast requests by prediction type and outcome",
			},
			[]string{"prediction_type", "status"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "energy_forecast_latency_seconds",
				Help:    "End-to-end forecast latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"prediction_type"},
		),
		predictorCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_predictor_calls_total",
				Help: "Model invocations by model and outcome",
			},
			[]string{"model", "status"},
		),
		anomalies: f.NewCounter(prometheus.CounterOpts{
			Name: "energy_anomalies_total",
			Help: "Anchor readings flagged as anomalous",
		}),
		cacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_cache_hits_total",
				Help: "Forecast cache hits by layer",
			},
			[]string{"layer"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) RecordForecast(predictionType, status string, seconds float64) {
	r.forecasts.WithLabelValues(predictionType, status).Inc()
	r.latency.WithLabelValues(predictionType).Observe(seconds)
}

func (r *Recorder) RecordPredictorCall(model, status string) {
	r.predictorCalls.WithLabelValues(model, status).Inc()
}

func (r *Recorder) RecordAnomaly() {
	r.anomalies.Inc()
}

func (r *Recorder) RecordCacheHit(layer string) {
	r.cacheHits.WithLabelValues(layer).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
