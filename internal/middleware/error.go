package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/logger"
)

// ErrorBody builds the failure envelope shared by every endpoint.
func ErrorBody(appErr *apperrors.AppError) gin.H {
	return gin.H{
		"success": false,
		"message": appErr.Message,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}
}

// WriteError renders err with the failure envelope. Internal causes are logged
// and never sent to the client.
func WriteError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Internal != nil {
		logger.Get().Errorw("request failed",
			"code", appErr.Code,
			"message", appErr.Message,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
	}
	c.JSON(appErr.StatusCode, ErrorBody(appErr))
}

func abortWithError(c *gin.Context, err error) {
	WriteError(c, err)
	c.Abort()
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses. AppErrors are returned with
// their code and message; unexpected errors are logged and return a generic
// internal error to avoid leaking details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		WriteError(c, c.Errors.Last().Err)
	}
}

// Recovery turns panics into an INTERNAL_ERROR envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Get().Errorw("panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(apperrors.ErrInternalServer.StatusCode, ErrorBody(apperrors.ErrInternalServer))
	})
}
