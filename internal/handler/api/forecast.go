package api

import (
	"github.com/labstack/echo/v4"

	"EnergyForecast/internal/usecase"
	xhttp "EnergyForecast/pkg/http"
	xlogger "EnergyForecast/pkg/logger"
)

// ForecastHandler serves stateless forecasts over submitted history.
type ForecastHandler struct {
	l  *xlogger.Logger
	uc *usecase.ForecastUseCase
}

func NewForecastHandler(l *xlogger.Logger, uc *usecase.ForecastUseCase) *ForecastHandler {
	return &ForecastHandler{l: l, uc: uc}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict", h.Predict)
	e.POST("/api/v1/forecast", h.Predict)
}

// Predict handles POST /predict.
func (h *ForecastHandler) Predict(c echo.Context) error {
	var req PredictRequest
	if errs := xhttp.ReadAndValidateRequest(c, &req); errs != nil {
		return xhttp.ValidationErrorResponse(c, errs)
	}
	pt, err := predictionType(req.PredictionType)
	if err != nil {
		return writeForecastError(c, h.l, "predict", err)
	}
	res, err := h.uc.Predict(c.Request().Context(), usecase.ForecastRequest{
		PredictionType: pt,
		History:        toRaw(req.History),
	})
	if err != nil {
		return writeForecastError(c, h.l, "predict", err)
	}
	return xhttp.SuccessResponse(c, toForecastResponse(res))
}
