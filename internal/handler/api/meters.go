package api

import (
	"github.com/labstack/echo/v4"

	"EnergyForecast/internal/usecase"
	xhttp "EnergyForecast/pkg/http"
	xlogger "EnergyForecast/pkg/logger"
)

// MeterHandler serves forecasts over stored meter readings.
type MeterHandler struct {
	l  *xlogger.Logger
	uc *usecase.MeterUseCase
}

func NewMeterHandler(l *xlogger.Logger, uc *usecase.MeterUseCase) *MeterHandler {
	return &MeterHandler{l: l, uc: uc}
}

func (h *MeterHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/meters/:meter_id")
	g.POST("/readings", h.StoreReadings)
	g.GET("/forecast", h.Forecast)
	g.GET("/insights", h.Insights)
}

func (h *MeterHandler) StoreReadings(c echo.Context) error {
	var req ReadingsRequest
	if errs := xhttp.ReadAndValidateRequest(c, &req); errs != nil {
		return xhttp.ValidationErrorResponse(c, errs)
	}
	meterID := c.Param("meter_id")
	n, err := h.uc.StoreReadings(c.Request().Context(), meterID, toRaw(req.Readings))
	if err != nil {
		return writeForecastError(c, h.l, "store readings", err)
	}
	return xhttp.CreatedResponse(c, ReadingsResponse{MeterID: meterID, Stored: n})
}

func (h *MeterHandler) Forecast(c echo.Context) error {
	var requested *string
	if q := c.QueryParams(); q.Has("prediction_type") {
		v := q.Get("prediction_type")
		requested = &v
	}
	pt, err := predictionType(requested)
	if err != nil {
		return writeForecastError(c, h.l, "meter forecast", err)
	}
	res, err := h.uc.Forecast(c.Request().Context(), c.Param("meter_id"), pt)
	if err != nil {
		return writeForecastError(c, h.l, "meter forecast", err)
	}
	return xhttp.SuccessResponse(c, toForecastResponse(res))
}

func (h *MeterHandler) Insights(c echo.Context) error {
	in, err := h.uc.Insights(c.Request().Context(), c.Param("meter_id"))
	if err != nil {
		return writeForecastError(c, h.l, "insights", err)
	}
	return xhttp.SuccessResponse(c, toInsightsResponse(in))
}
