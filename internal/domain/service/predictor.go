package service

import "context"

// AnomalySentinel is the detector output marking an anomalous reading.
const AnomalySentinel = -1

// FeatureCount is the width of the regressor input:
// [units, avg_3, avg_7, trend, day_of_week, is_weekend].
const FeatureCount = 6

// Regressor predicts next-day consumption from a six-element feature vector.
// Implementations must be safe for concurrent use.
type Regressor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

// AnomalyDetector labels a single day's raw units, returning AnomalySentinel for outliers.
// Implementations must be safe for concurrent use.
type AnomalyDetector interface {
	Label(ctx context.Context, units float64) (int, error)
}
