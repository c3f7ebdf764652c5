package helpers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/farellandr/ticketmart/internal/logger"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func RespondWithData(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

func RespondWithMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{Success: true, Message: message})
}

// RespondWithList answers with data plus its length and, when given, the
// page links.
func RespondWithList(c *gin.Context, data any, count int, pagination *Pagination) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Count: &count, Pagination: pagination})
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Message: customMessage,
	})
}

// RespondWithServiceError maps an error from the service layer to a status
// code. Unexpected errors are logged and hidden behind a generic message.
func RespondWithServiceError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Get().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		RespondWithError(c, status, "Server error")
		return
	}
	RespondWithError(c, status, publicMessage(err))
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPayment):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage turns "validation failed: title is required" into
// "Title is required".
func publicMessage(err error) string {
	msg := err.Error()
	for _, kind := range []error{models.ErrValidation, models.ErrPayment, models.ErrUnauthorized, models.ErrForbidden, models.ErrConflict} {
		msg = strings.ReplaceAll(msg, kind.Error()+": ", "")
	}
	if errors.Is(err, models.ErrForbidden) && msg == models.ErrForbidden.Error() {
		msg = "not authorized to perform this action"
	}
	if msg == "" {
		return http.StatusText(StatusFor(err))
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
