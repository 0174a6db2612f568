package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"EnergyForecast/internal/domain/models"
	xhttp "EnergyForecast/pkg/http"
	xlogger "EnergyForecast/pkg/logger"
)

const predictionFailed = "Prediction failed"

// toAppError maps a forecast failure onto the HTTP error contract.
func toAppError(err error) *xhttp.AppError {
	fe := models.AsForecastError(err)
	if fe.IsClientError() {
		ae := xhttp.NewAppError(string(fe.Kind), fe.Message, http.StatusBadRequest)
		if fe.Err != nil {
			ae = ae.WithError(fe.Err)
		}
		return ae
	}
	return xhttp.NewAppError(string(fe.Kind), predictionFailed, http.StatusInternalServerError).WithError(err)
}

func writeForecastError(c echo.Context, l *xlogger.Logger, op string, err error) error {
	ae := toAppError(err)
	if ae.Status >= http.StatusInternalServerError {
		l.Error(op+" failed",
			xlogger.String("type", ae.Type),
			xlogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			xlogger.Error(err))
	} else {
		l.Debug(op+" rejected", xlogger.String("type", ae.Type), xlogger.String("error", ae.Message))
	}
	return xhttp.AppErrorResponse(c, ae)
}
