package api

import (
	"github.com/labstack/echo/v4"

	xhttp "EnergyForecast/pkg/http"
)

// Router registers a set of handlers as one.
type Router []xhttp.Handler

func (r Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}
