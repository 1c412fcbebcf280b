package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse builds an ErrorResponse.
func NewErrorResponse(code int, message, details string) ErrorResponse {
	return ErrorResponse{Code: code, Message: message, Details: details}
}

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, faktura.ErrMissingTenant):
		return http.StatusBadRequest
	case faktura.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, faktura.ErrConflict),
		errors.Is(err, faktura.ErrIllegalTransition),
		errors.Is(err, faktura.ErrSnapshotLocked),
		errors.Is(err, faktura.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, faktura.ErrInvalidInput),
		errors.Is(err, faktura.ErrInvalidDiscount),
		errors.Is(err, faktura.ErrInvalidPayment),
		errors.Is(err, faktura.ErrCurrencyMismatch),
		errors.Is(err, faktura.ErrNoSnapshot),
		errors.Is(err, faktura.ErrNoInvoices):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var messages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusNotFound:            "not found",
	http.StatusConflict:            "conflict",
	http.StatusUnprocessableEntity: "unprocessable request",
	http.StatusInternalServerError: "internal error",
}

// fail aborts the request with the status mapped from err. Internal errors
// are logged and their details withheld from the client.
func (s *Server) fail(c *gin.Context, err error) {
	code := StatusFor(err)
	details := err.Error()
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		details = ""
	}
	c.AbortWithStatusJSON(code, NewErrorResponse(code, messages[code], details))
}

func badRequest(c *gin.Context, message string, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		NewErrorResponse(http.StatusBadRequest, message, err.Error()))
}
