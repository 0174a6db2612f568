package inference

import (
	"context"

	"EnergyForecast/internal/ml/forest"
)

// NativeRegressor evaluates a regression forest in process.
type NativeRegressor struct {
	forest *forest.RegressionForest
}

func NewNativeRegressor(f *forest.RegressionForest) *NativeRegressor {
	return &NativeRegressor{forest: f}
}

// LoadNativeRegressor reads a regressor artifact from disk.
func LoadNativeRegressor(path string) (*NativeRegressor, error) {
	a, err := forest.LoadArtifact(path, forest.KindRegressor)
	if err != nil {
		return nil, err
	}
	return NewNativeRegressor(a.Regressor), nil
}

func (r *NativeRegressor) Predict(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.forest.Predict(features)
}

// NativeAnomalyDetector evaluates an isolation forest in process.
type NativeAnomalyDetector struct {
	forest *forest.IsolationForest
}

func NewNativeAnomalyDetector(f *forest.IsolationForest) *NativeAnomalyDetector {
	return &NativeAnomalyDetector{forest: f}
}

// LoadNativeAnomalyDetector reads an isolation artifact from disk.
func LoadNativeAnomalyDetector(path string) (*NativeAnomalyDetector, error) {
	a, err := forest.LoadArtifact(path, forest.KindIsolation)
	if err != nil {
		return nil, err
	}
	return NewNativeAnomalyDetector(a.Isolation), nil
}

func (d *NativeAnomalyDetector) Label(ctx context.Context, units float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return d.forest.Label([]float64{units})
}
