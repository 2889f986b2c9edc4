package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the failure envelope of every endpoint
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HTTPErrorHandler renders apperr kinds with their status codes. Anything
// unrecognised is logged and answered with a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
	}
	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		zap.L().Warn("write error response", zap.Error(writeErr))
	}
}

func errorBody(err error) (int, ErrorResponse) {
	if ae, ok := apperr.As(err); ok {
		return ae.Status(), ErrorResponse{Error: ae.Code, Message: ae.Message}
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, ValidationErrorResponse(verrs)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, ErrorResponse{Error: httpErrorCode(he.Code), Message: msg}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL_ERROR", Message: "Internal server error"}
}

// ValidationErrorResponse lists the failing fields
func ValidationErrorResponse(verrs validator.ValidationErrors) ErrorResponse {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			fields[lowerFirst(fe.Field())] = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		} else {
			fields[lowerFirst(fe.Field())] = fe.Tag()
		}
	}
	return ErrorResponse{Error: "VALIDATION_ERROR", Message: "Request validation failed", Details: fields}
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
