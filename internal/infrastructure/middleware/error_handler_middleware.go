package middleware

import (
	"net/http"

	"morpheus/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps an error kind to the debug API's HTTP status.
func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindLookupMiss:
		return http.StatusNotFound
	case errors.KindInvalidInput:
		return http.StatusBadRequest
	case errors.KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders the last error attached to the context.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		kind := errors.KindOf(err)
		status := statusFor(kind)

		log := logger.Errorw
		if errors.IsIgnorable(err) {
			log = logger.Warnw
		}
		log("request failed",
			"kind", kind,
			"status", status,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", err.Error(),
		)

		appErr := errors.GetAppError(err)
		if appErr == nil {
			c.JSON(status, gin.H{
				"error":   string(kind),
				"message": "Internal server error",
			})
			return
		}

		c.JSON(status, gin.H{
			"error":   string(appErr.Kind),
			"message": appErr.Message,
			"details": appErr.Context,
		})
	}
}

// RecoveryMiddleware turns a handler panic into a 500.
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   string(errors.KindInternal),
					"message": "Internal server error",
				})
			}
		}()

		c.Next()
	}
}
