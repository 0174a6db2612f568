package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes data as the top-level JSON body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse writes created response.
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

// NoContentResponse writes no content response.
func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// ValidationErrorResponse writes a 400 built from binding or validation failures.
func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request",
		Details: strings.Join(msgs, "; "),
		Type:    "InputParseError",
		Fields:  errs,
	})
}

// AppErrorResponse writes an AppError with its own status, anything else as a 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, ErrorResponse{
			Error:   appErr.Message,
			Details: appErr.Details,
			Type:    appErr.Type,
		})
	}
	return InternalServerErrorResponse(c, err)
}

// InternalServerErrorResponse writes a generic 500.
func InternalServerErrorResponse(c echo.Context, err error) error {
	body := ErrorResponse{Error: "Internal Server Error", Type: "UnexpectedError"}
	if err != nil {
		body.Details = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}
