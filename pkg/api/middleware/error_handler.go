package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/dto"
)

// ErrorHandler is a middleware that handles errors and panics
func ErrorHandler(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithFields(logrus.Fields{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"panic":  err,
				}).Error("Recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Detail: "A server error occurred.",
					Code:   "INTERNAL_ERROR",
				})
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()

			statusCode := c.Writer.Status()
			if statusCode == http.StatusOK {
				statusCode = http.StatusInternalServerError
			}

			c.JSON(statusCode, dto.ErrorResponse{Detail: err.Error()})
		}
	}
}

// AbortWithError aborts with a detail message and an error code
func AbortWithError(c *gin.Context, statusCode int, code, detail string) {
	c.AbortWithStatusJSON(statusCode, dto.ErrorResponse{
		Detail: detail,
		Code:   code,
	})
}

// AbortWithFieldErrors aborts with 400 and per-field messages next to the detail
func AbortWithFieldErrors(c *gin.Context, detail string, fields map[string][]string) {
	body := gin.H{"detail": detail}
	for field, messages := range fields {
		body[field] = messages
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
