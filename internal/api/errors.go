package api

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// handleError is the echo HTTPErrorHandler. Provider failures become 502,
// provider throttling 429 and request problems 400.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			logger.String("path", c.Path()),
			logger.Int("status", status),
			logger.Error(err))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if writeErr != nil {
		s.log.Warn("failed to write error response", logger.Error(writeErr))
	}
}

// errorStatus maps an error to an HTTP status and client facing detail.
func errorStatus(err error) (int, string) {
	var be *echo.BindingError
	if errors.As(err, &be) {
		return http.StatusBadRequest, fmt.Sprintf("%s: %v", be.Field, be.Message)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, validationDetail(ve)
	}

	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest, err.Error()
	case errors.CategoryLimit:
		return http.StatusTooManyRequests, err.Error()
	case errors.CategoryGeneric:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	default:
		return http.StatusBadGateway, err.Error()
	}
}
