package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
)

// ErrorHandler is the single place where errors become HTTP responses.
// *apperror.Error carries its own status and client-safe message,
// *echo.HTTPError keeps its code, anything else is a 500 whose details are
// only logged.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var ae *apperror.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Kind.Status()
			message = ae.Message
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(he.Code)
			}
			if status >= 500 && he.Internal != nil {
				err = he.Internal
			}
		}

		if status >= 500 {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, Response{Status: status, Data: nil, Message: message, Success: false})
		}
		if writeErr != nil {
			log.Warn("write error response", zap.String("error", fmt.Sprint(writeErr)))
		}
	}
}
