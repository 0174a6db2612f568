package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EnergyForecast/internal/ml/forest"
	"EnergyForecast/pkg/config"
	"EnergyForecast/pkg/logger"
)

func TestHTTPRegressor_Predict(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict/regressor", r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req featuresRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Features, 1)
		require.Len(t, req.Features[0], 6)
		_ = json.NewEncoder(w).Encode(regressorResponse{Predictions: []float64{req.Features[0][0] + 1}})
	}))
	defer srv.Close()

	r := NewHTTPRegressor(srv.URL+"/", time.Second, 2)
	p, err := r.Predict(context.Background(), []float64{10, 10, 10, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 11.0, p)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPRegressor_RejectsWrongWidth(t *testing.T) {
	r := NewHTTPRegressor("http://unused", time.Second, 1)
	_, err := r.Predict(context.Background(), []float64{1, 2})
	assert.Error(t, err)
}

func TestHTTPRegressor_BadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(regressorResponse{})
	}))
	defer srv.Close()

	_, err := NewHTTPRegressor(srv.URL, time.Second, 1).Predict(context.Background(), make([]float64, 6))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 prediction")
}

func TestHTTPAnomalyDetector_Label(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict/anomaly", r.URL.Path)
		var req featuresRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		label := 1
		if req.Features[0][0] > 100 {
			label = -1
		}
		_ = json.NewEncoder(w).Encode(anomalyResponse{Labels: []int{label}})
	}))
	defer srv.Close()

	d := NewHTTPAnomalyDetector(srv.URL, time.Second, 1)
	l, err := d.Label(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, -1, l)

	l, err = d.Label(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, l)
}

func TestHTTPServiceBase_RequiresURL(t *testing.T) {
	err := NewHTTPServiceBase("", time.Second, 1).PostJSON(context.Background(), "/x", nil, nil)
	assert.Error(t, err)
}

func writeArtifacts(t *testing.T) (string, string) {
	t.Helper()
	X := make([][]float64, 0, 40)
	y := make([]float64, 0, 40)
	U := make([][]float64, 0, 40)
	for i := 0; i < 40; i++ {
		u := 10 + float64(i%5)
		X = append(X, []float64{u, u, u, 0, float64(i % 7), 0})
		y = append(y, u)
		U = append(U, []float64{u})
	}
	reg, err := forest.FitRegressor(X, y, forest.RegressorConfig{Trees: 5, MaxDepth: 4, MinLeaf: 1, Seed: 1})
	require.NoError(t, err)
	iso, err := forest.FitIsolation(U, forest.IsolationConfig{Trees: 10, SampleSize: 32, Contamination: 0.05, Seed: 1})
	require.NoError(t, err)

	dir := t.TempDir()
	regPath := filepath.Join(dir, "regressor.json")
	isoPath := filepath.Join(dir, "anomaly.json")
	require.NoError(t, (&forest.Artifact{Kind: forest.KindRegressor, Regressor: reg}).Save(regPath))
	require.NoError(t, (&forest.Artifact{Kind: forest.KindIsolation, Isolation: iso}).Save(isoPath))
	return regPath, isoPath
}

func TestLoad_Native(t *testing.T) {
	regPath, isoPath := writeArtifacts(t)
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Model.Backend = BackendNative
	cfg.Model.RegressorPath = regPath
	cfg.Model.AnomalyPath = isoPath

	m, err := Load(cfg, logger.Nop())
	require.NoError(t, err)
	defer m.Close()

	p, err := m.Regressor.Predict(context.Background(), []float64{12, 12, 12, 0, 2, 0})
	require.NoError(t, err)
	assert.InDelta(t, 12, p, 2.5)

	l, err := m.Anomaly.Label(context.Background(), 1e6)
	require.NoError(t, err)
	assert.Contains(t, []int{forest.Outlier, forest.Inlier}, l)
}

func TestLoad_Errors(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	cfg.Model.Backend = "tensorflow"
	_, err = Load(cfg, logger.Nop())
	assert.Error(t, err)

	cfg.Model.Backend = BackendNative
	cfg.Model.RegressorPath = filepath.Join(t.TempDir(), "missing.json")
	_, err = Load(cfg, logger.Nop())
	assert.Error(t, err)

	cfg.Model.Backend = BackendHTTP
	m, err := Load(cfg, logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, m.Close())
}

func TestNative_ContextCancelled(t *testing.T) {
	regPath, _ := writeArtifacts(t)
	r, err := LoadNativeRegressor(regPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Predict(ctx, make([]float64, 6))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestONNX_ClosedSession(t *testing.T) {
	reg := &ONNXRegressor{s: &onnxSession{}}
	det := &ONNXAnomalyDetector{s: &onnxSession{}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Predict(context.Background(), make([]float64, 6))
			assert.ErrorIs(t, err, errSessionClosed)
			_, err = det.Label(context.Background(), 10)
			assert.ErrorIs(t, err, errSessionClosed)
		}()
		assert.NoError(t, reg.Close())
	}
	wg.Wait()

	assert.NoError(t, det.Close())
	assert.NoError(t, det.Close())
	assert.ErrorIs(t, reg.s.run(nil, nil), errSessionClosed)
	var nilSession *onnxSession
	assert.ErrorIs(t, nilSession.run(nil, nil), errSessionClosed)
	assert.NoError(t, nilSession.destroy())
}

type countingMetrics struct {
	calls map[string]int
}

func (c *countingMetrics) RecordForecast(string, string, float64) {}
func (c *countingMetrics) RecordPredictorCall(model, status string) {
	c.calls[model+":"+status]++
}
func (c *countingMetrics) RecordAnomaly()        {}
func (c *countingMetrics) RecordCacheHit(string) {}
func (c *countingMetrics) RecordError(string)    {}

type regFunc func(context.Context, []float64) (float64, error)

func (f regFunc) Predict(ctx context.Context, x []float64) (float64, error) { return f(ctx, x) }

type detFunc func(context.Context, float64) (int, error)

func (f detFunc) Label(ctx context.Context, u float64) (int, error) { return f(ctx, u) }

func TestInstrumented(t *testing.T) {
	m := &countingMetrics{calls: map[string]int{}}
	fail := true
	reg := InstrumentRegressor(regFunc(func(context.Context, []float64) (float64, error) {
		if fail {
			return 0, errors.New("x")
		}
		return 1, nil
	}), m)
	det := InstrumentAnomalyDetector(detFunc(func(context.Context, float64) (int, error) { return 1, nil }), m)

	_, _ = reg.Predict(context.Background(), nil)
	fail = false
	_, _ = reg.Predict(context.Background(), nil)
	_, _ = det.Label(context.Background(), 1)

	assert.Equal(t, map[string]int{
		"regressor:error": 1,
		"regressor:ok":    1,
		"anomaly:ok":      1,
	}, m.calls)

	plain := regFunc(func(context.Context, []float64) (float64, error) { return 0, nil })
	assert.NotNil(t, InstrumentRegressor(plain, nil))
}
