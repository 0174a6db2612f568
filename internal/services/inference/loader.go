package inference

import (
	"errors"
	"fmt"
	"io"

	"EnergyForecast/internal/domain/service"
	"EnergyForecast/pkg/config"
	"EnergyForecast/pkg/logger"
)

// Backends.
const (
	BackendNative = "native"
	BackendONNX   = "onnx"
	BackendHTTP   = "http"
)

// Models bundles the loaded predictors. Both are read-only after load and safe for concurrent use.
type Models struct {
	Regressor service.Regressor
	Anomaly   service.AnomalyDetector
	closers   []io.Closer
}

// Close releases runtime resources held by the models.
func (m *Models) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load builds both predictors for the configured backend.
func Load(cfg *config.Config, log *logger.Logger) (*Models, error) {
	mc := cfg.Model
	log.Info("loading models", logger.String("backend", mc.Backend))

	switch mc.Backend {
	case BackendNative:
		reg, err := LoadNativeRegressor(mc.RegressorPath)
		if err != nil {
			return nil, fmt.Errorf("load regressor: %w", err)
		}
		det, err := LoadNativeAnomalyDetector(mc.AnomalyPath)
		if err != nil {
			return nil, fmt.Errorf("load anomaly detector: %w", err)
		}
		return &Models{Regressor: reg, Anomaly: det}, nil

	case BackendONNX:
		if err := InitONNXRuntime(mc.ONNX.LibraryPath); err != nil {
			return nil, err
		}
		reg, err := NewONNXRegressor(mc.ONNX.RegressorPath, mc.ONNX.InputName, mc.ONNX.RegressorOutput)
		if err != nil {
			return nil, err
		}
		det, err := NewONNXAnomalyDetector(mc.ONNX.AnomalyPath, mc.ONNX.InputName, mc.ONNX.AnomalyOutput)
		if err != nil {
			_ = reg.Close()
			return nil, err
		}
		return &Models{Regressor: reg, Anomaly: det, closers: []io.Closer{reg, det}}, nil

	case BackendHTTP:
		return &Models{
			Regressor: NewHTTPRegressor(mc.ServiceURL, mc.Timeout, mc.Retries),
			Anomaly:   NewHTTPAnomalyDetector(mc.ServiceURL, mc.Timeout, mc.Retries),
		}, nil

	default:
		return nil, fmt.Errorf("unknown model backend %q", mc.Backend)
	}
}
