package inference

import (
	"context"
	"fmt"
	"time"

	"EnergyForecast/internal/domain/service"
)

type featuresRequest struct {
	Features [][]float64 `json:"features"`
}

type regressorResponse struct {
	Predictions []float64 `json:"predictions"`
}

type anomalyResponse struct {
	Labels []int `json:"labels"`
}

// HTTPRegressor calls a remote model service.
type HTTPRegressor struct {
	base *HTTPServiceBase
}

func NewHTTPRegressor(baseURL string, timeout time.Duration, attempts int) *HTTPRegressor {
	return &HTTPRegressor{base: NewHTTPServiceBase(baseURL, timeout, attempts)}
}

func (r *HTTPRegressor) Predict(ctx context.Context, features []float64) (float64, error) {
	if len(features) != service.FeatureCount {
		return 0, fmt.Errorf("expected %d features, got %d", service.FeatureCount, len(features))
	}
	var resp regressorResponse
	if err := r.base.PostJSON(ctx, "/predict/regressor", featuresRequest{Features: [][]float64{features}}, &resp); err != nil {
		return 0, err
	}
	if len(resp.Predictions) != 1 {
		return 0, fmt.Errorf("expected 1 prediction, got %d", len(resp.Predictions))
	}
	return resp.Predictions[0], nil
}

// HTTPAnomalyDetector calls a remote model service.
type HTTPAnomalyDetector struct {
	base *HTTPServiceBase
}

func NewHTTPAnomalyDetector(baseURL string, timeout time.Duration, attempts int) *HTTPAnomalyDetector {
	return &HTTPAnomalyDetector{base: NewHTTPServiceBase(baseURL, timeout, attempts)}
}

func (d *HTTPAnomalyDetector) Label(ctx context.Context, units float64) (int, error) {
	var resp anomalyResponse
	if err := d.base.PostJSON(ctx, "/predict/anomaly", featuresRequest{Features: [][]float64{{units}}}, &resp); err != nil {
		return 0, err
	}
	if len(resp.Labels) != 1 {
		return 0, fmt.Errorf("expected 1 label, got %d", len(resp.Labels))
	}
	return resp.Labels[0], nil
}
