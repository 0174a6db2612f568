package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "EnergyForecast/internal/repository"
	"EnergyForecast/internal/services/inference"
	"EnergyForecast/pkg/config"
	"EnergyForecast/pkg/logger"
)

type constModel struct{}

func (constModel) Predict(context.Context, []float64) (float64, error) { return 4, nil }
func (constModel) Label(context.Context, float64) (int, error) { return 1, nil }

type countingMetrics struct {
	mu   sync.Mutex
	hits map[string]int
}

func (m *countingMetrics) RecordForecast(string, string, float64) {}
func (m *countingMetrics) RecordPredictorCall(string, string) {}
func (m *countingMetrics) RecordAnomaly() {}
func (m *countingMetrics) RecordError(string) {}
func (m *countingMetrics) RecordCacheHit(layer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[layer]++
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return cfg
}

func TestProvideReadingStore(t *testing.T) {
	cfg := testConfig(t)

	store, cleanup, err := ProvideReadingStore(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, store)
	cleanup()

	cfg.Store.Type = StoreMemory
	store, cleanup, err = ProvideReadingStore(cfg, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &internalrepo.MemoryReadingStore{}, store)
	cleanup()

	cfg.Store.Type = "mysql"
	_, _, err = ProvideReadingStore(cfg, logger.Nop())
	assert.ErrorContains(t, err, "unknown store type")
}

func TestProvideCache(t *testing.T) {
	cfg := testConfig(t)
	rec := &countingMetrics{hits: map[string]int{}}

	c := ProvideCache(cfg, nil, rec, logger.Nop())
	require.NotNil(t, c)
	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))
	assert.Equal(t, 1, rec.hits["memory"])

	cfg.Cache.Enabled = false
	assert.Nil(t, ProvideCache(cfg, nil, rec, logger.Nop()))
}

func TestDisabledKafka(t *testing.T) {
	cfg := testConfig(t)

	p, cleanup, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)
	cleanup()

	assert.IsType(t, internalrepo.NoopForecastPublisher{}, ProvideForecastPublisher(cfg, nil))

	c, err := ProvideKafkaConsumer(cfg, nil, &countingMetrics{}, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestProvideHTTPHandler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Type = StoreMemory
	rec := &countingMetrics{hits: map[string]int{}}
	models := &inference.Models{Regressor: constModel{}, Anomaly: constModel{}}

	store, cleanup, err := ProvideReadingStore(cfg, logger.Nop())
	require.NoError(t, err)
	defer cleanup()

	f := ProvideForecaster(cfg, models, rec)
	uc := ProvideForecastUseCase(cfg, f, models, nil, ProvideForecastPublisher(cfg, nil), rec, logger.Nop())
	meters := ProvideMeterUseCase(store, uc, logger.Nop())
	require.NotNil(t, meters)

	e := echo.New()
	ProvideHTTPHandler(logger.Nop(), uc, meters, models, nil).RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"ok"`)

	body := `{"history":[{"date":"2024-03-01","total_units":4},{"date":"2024-03-02","total_units":4},{"date":"2024-03-03","total_units":4}]}`
	req = httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w = httptest.NewRecorder()
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"next_day_units":4`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/meters/m-1/insights", nil)
	w = httptest.NewRecorder()
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
