package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EnergyForecast/internal/repository"
	"EnergyForecast/internal/services/forecast"
	"EnergyForecast/internal/usecase"
	xhttp "EnergyForecast/pkg/http"
	xlogger "EnergyForecast/pkg/logger"
)

type constRegressor struct {
	value float64
	err   error
}

func (r constRegressor) Predict(context.Context, []float64) (float64, error) { return r.value, r.err }

type constDetector int

func (d constDetector) Label(context.Context, float64) (int, error) { return int(d), nil }

func newEcho(reg constRegressor, label int, withMeters bool) *echo.Echo {
	uc := usecase.NewForecastUseCase(forecast.New(reg), constDetector(label))
	routes := Router{NewForecastHandler(xlogger.Nop(), uc), NewHealthHandler(time.Second)}
	if withMeters {
		meters := usecase.NewMeterUseCase(repository.NewMemoryReadingStore(), uc, xlogger.Nop())
		routes = append(routes, NewMeterHandler(xlogger.Nop(), meters))
	}
	e := echo.New()
	routes.RegisterRoutes(e)
	return e
}

func history(days int, units float64) string {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	parts := make([]string, days)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"date":%q,"total_units":%g}`, start.AddDate(0, 0, i).Format("2006-01-02"), units)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestPredict_Daily(t *testing.T) {
	e := newEcho(constRegressor{value: 10}, 1, false)

	rec := do(e, http.MethodPost, "/predict", `{"history":`+history(3, 10)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "daily", body["prediction_type"])
	assert.Equal(t, 10.0, body["next_day_units"])
	assert.Equal(t, 4100.0, body["predicted_2month_bill"])
	assert.Equal(t, false, body["anomaly_detected"])
	assert.Equal(t, "low", body["confidence"])
	assert.Equal(t, 3.0, body["data_days"])
	assert.Contains(t, body["warning"], "Limited data (3 days)")
	assert.NotContains(t, body, "weekly_prediction")
	assert.NotContains(t, body, "monthly_prediction")
	assert.NotContains(t, body, "predicted_monthly_bill")
}

func TestPredict_Weekly(t *testing.T) {
	e := newEcho(constRegressor{value: 5}, -1, false)

	rec := do(e, http.MethodPost, "/api/v1/forecast", `{"prediction_type":"weekly","history":`+history(30, 5)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.WeeklyPrediction)
	assert.Len(t, resp.WeeklyPrediction.Predictions, 7)
	assert.Equal(t, 35.0, resp.WeeklyPrediction.TotalWeeklyUnits)
	assert.Equal(t, "2024-01-31", resp.WeeklyPrediction.StartDate)
	assert.Equal(t, "2024-02-06", resp.WeeklyPrediction.EndDate)
	assert.Equal(t, "Wednesday", resp.WeeklyPrediction.Predictions[0].DayName)
	assert.True(t, resp.AnomalyDetected)
	assert.Equal(t, "high", resp.Confidence)
	assert.Nil(t, resp.Warning)
}

func TestPredict_Monthly(t *testing.T) {
	e := newEcho(constRegressor{value: 10}, 1, false)

	rec := do(e, http.MethodPost, "/predict", `{"prediction_type":"monthly","history":`+history(14, 10)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.MonthlyPrediction)
	assert.Len(t, resp.MonthlyPrediction.DailyPredictions, 30)
	require.Len(t, resp.MonthlyPrediction.WeeklySummaries, 5)
	assert.Equal(t, 2, resp.MonthlyPrediction.WeeklySummaries[4].Days)
	assert.Equal(t, 300.0, resp.MonthlyPrediction.TotalMonthlyUnits)
	require.NotNil(t, resp.PredictedMonthlyBill)
	assert.Equal(t, 1700.0, *resp.PredictedMonthlyBill)
	assert.Equal(t, "medium", resp.Confidence)
}

func TestPredict_ClientErrors(t *testing.T) {
	e := newEcho(constRegressor{value: 10}, 1, false)

	cases := map[string]struct {
		body     string
		wantType string
	}{
		"malformed json":  {`{"history":`, "InputParseError"},
		"missing history": {`{}`, "InputParseError"},
		"empty history":   {`{"history":[]}`, "InputParseError"},
		"missing units":   {`{"history":[{"date":"2024-01-01"}]}`, "InputParseError"},
		"bad date":        {`{"history":[{"date":"01/01/2024","total_units":3}]}`, "InputParseError"},
		"duplicate date":  {`{"history":[{"date":"2024-01-01","total_units":3},{"date":"2024-01-01","total_units":4}]}`, "InputParseError"},
		"bad type":        {`{"prediction_type":"yearly","history":` + history(3, 1) + `}`, "InvalidRequestError"},
		"empty type":      {`{"prediction_type":"","history":` + history(3, 1) + `}`, "InvalidRequestError"},
	}
	for name, tc := range cases {
		rec := do(e, http.MethodPost, "/predict", tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		var body xhttp.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), name)
		assert.Equal(t, tc.wantType, body.Type, name)
		assert.NotEmpty(t, body.Error, name)
	}
}

func TestPredict_OnlyAbsentTypeDefaultsToDaily(t *testing.T) {
	e := newEcho(constRegressor{value: 10}, 1, false)

	rec := do(e, http.MethodPost, "/predict", `{"prediction_type":null,"history":`+history(3, 10)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "daily", decode(t, rec)["prediction_type"])

	rec = do(e, http.MethodPost, "/predict", `{"prediction_type":"","history":`+history(3, 10)+`}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "InvalidRequestError", body["type"])
	assert.Equal(t, "Invalid prediction_type. Use 'daily', 'weekly', or 'monthly'", body["error"])
}

func TestMeterRoutes_EmptyPredictionType(t *testing.T) {
	e := newEcho(constRegressor{value: 10}, 1, true)
	rec := do(e, http.MethodPost, "/api/v1/meters/m-2/readings", `{"readings":`+history(10, 10)+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/meters/m-2/forecast?prediction_type=", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidRequestError", decode(t, rec)["type"])

	rec = do(e, http.MethodGet, "/api/v1/meters/m-2/forecast", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "daily", decode(t, rec)["prediction_type"])
}

func TestPredict_PredictorFailure(t *testing.T) {
	e := newEcho(constRegressor{err: errors.New("model unavailable")}, 1, false)

	rec := do(e, http.MethodPost, "/predict", `{"history":`+history(5, 10)+`}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body xhttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Prediction failed", body.Error)
	assert.Equal(t, "PredictorFailure", body.Type)
	assert.Contains(t, body.Details, "model unavailable")
}

func TestMeterRoutes(t *testing.T) {
	e := newEcho(constRegressor{value: 10}, 1, true)

	rec := do(e, http.MethodGet, "/api/v1/meters/m-1/forecast", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "InsufficientHistory", body["type"])
	assert.Equal(t, "No readings found for meter m-1", body["error"])

	rec = do(e, http.MethodPost, "/api/v1/meters/m-1/readings", `{"readings":`+history(20, 10)+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var stored ReadingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, ReadingsResponse{MeterID: "m-1", Stored: 20}, stored)

	rec = do(e, http.MethodGet, "/api/v1/meters/m-1/forecast?prediction_type=weekly", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fr ForecastResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fr))
	assert.Equal(t, "m-1", fr.MeterID)
	assert.Equal(t, 14, fr.DataDays)
	require.NotNil(t, fr.WeeklyPrediction)

	rec = do(e, http.MethodGet, "/api/v1/meters/m-1/insights", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var in InsightsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &in))
	assert.Equal(t, 70.0, in.WeeklyUnits)
	assert.Equal(t, 300.0, in.MonthlyUnits)
	assert.Equal(t, 1700.0, in.PredictedMonthlyBill)
	assert.Equal(t, "moderate", in.UsageLevel)
	assert.Equal(t, 20, in.DataDays)
}

func TestMeterRoutes_InvalidBody(t *testing.T) {
	e := newEcho(constRegressor{value: 10}, 1, true)

	rec := do(e, http.MethodPost, "/api/v1/meters/m-1/readings", `{"readings":[{"date":"2024-01-01","total_units":-1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InputParseError", decode(t, rec)["type"])
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler(time.Second).
		AddCheck("models", func(context.Context) error { return nil }).
		AddCheck("store", func(context.Context) error { return errors.New("connection refused") })
	h.RegisterRoutes(e)

	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = do(e, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp xhttp.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "ok", resp.Components["models"])
	assert.Equal(t, "connection refused", resp.Components["store"])
}
