package inference

import (
	"context"

	"EnergyForecast/internal/domain/repository"
	"EnergyForecast/internal/domain/service"
	"EnergyForecast/pkg/otel"
)

// Model names used as metric labels.
const (
	ModelRegressor = "regressor"
	ModelAnomaly   = "anomaly"
)

type instrumentedRegressor struct {
	next    service.Regressor
	metrics repository.Metrics
}

// InstrumentRegressor counts calls by outcome and traces each one.
func InstrumentRegressor(next service.Regressor, m repository.Metrics) service.Regressor {
	if m == nil {
		return next
	}
	return &instrumentedRegressor{next: next, metrics: m}
}

func (r *instrumentedRegressor) Predict(ctx context.Context, features []float64) (float64, error) {
	ctx, span := otel.StartSpan(ctx, "predict", otel.AttrModel.String(ModelRegressor))
	defer span.End()
	p, err := r.next.Predict(ctx, features)
	if err != nil {
		otel.RecordError(span, err)
	}
	r.metrics.RecordPredictorCall(ModelRegressor, status(err))
	return p, err
}

type instrumentedDetector struct {
	next    service.AnomalyDetector
	metrics repository.Metrics
}

// InstrumentAnomalyDetector counts calls by outcome.
func InstrumentAnomalyDetector(next service.AnomalyDetector, m repository.Metrics) service.AnomalyDetector {
	if m == nil {
		return next
	}
	return &instrumentedDetector{next: next, metrics: m}
}

func (d *instrumentedDetector) Label(ctx context.Context, units float64) (int, error) {
	ctx, span := otel.StartSpan(ctx, "predict", otel.AttrModel.String(ModelAnomaly))
	defer span.End()
	l, err := d.next.Label(ctx, units)
	if err != nil {
		otel.RecordError(span, err)
	}
	d.metrics.RecordPredictorCall(ModelAnomaly, status(err))
	return l, err
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
