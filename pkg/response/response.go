package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/pkg/logger"
)

// Response is the unified API response format.
type Response struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Message sends a 200 OK response carrying only a message.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: msg,
	})
}

// SuccessWithMessage sends a 200 OK response with a custom message and data.
func SuccessWithMessage(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: msg,
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error is the single exit for failures: every fault is classified into an
// AppError and rendered as {code, message, errors?}. Unclassified and storage
// faults are logged with their cause; the cause is never sent to the client.
func Error(c *gin.Context, err error) {
	appErr := Classify(err)

	if appErr.Kind == KindUnhandled || appErr.Kind == KindStorageFailure {
		cause := appErr.Err
		if cause == nil {
			cause = err
		}
		logger.Error().
			Err(cause).
			Str("kind", appErr.Kind.String()).
			Str("request_id", logger.GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
		Errors:  appErr.Errors,
	})
}

// Convenience error response functions

func Unauthorized(c *gin.Context, msg string) {
	Error(c, NewUnauthenticated(msg))
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, NewForbidden(msg))
}

func NotFound(c *gin.Context, msg string) {
	Error(c, NewNotFound(msg))
}

func TooManyRequests(c *gin.Context) {
	Error(c, NewRateLimited(""))
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return Classify(err).Kind == kind
}
