package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestID injects an X-Request-ID header into the request and response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

const contextKeyLogger = "logger"

// Logger logs each HTTP request with method, path, status, and latency, and exposes
// a request-scoped logger through RequestLogger.
func Logger(log logrus.FieldLogger) gin.HandlerFunc {
	log = log.WithField("module", "http")
	return func(c *gin.Context) {
		start := time.Now()
		requestID, _ := c.Get("request_id")
		reqLog := log.WithField("request_id", requestID)
		c.Set(contextKeyLogger, reqLog)
		c.Next()

		entry := reqLog.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if orgID, ok := c.Get(ContextKeyOrganizationID); ok {
			entry = entry.WithField("organization_id", orgID)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// RequestLogger returns the request-scoped logger set by Logger, or the standard logger.
func RequestLogger(c *gin.Context) logrus.FieldLogger {
	if val, ok := c.Get(contextKeyLogger); ok {
		if l, ok := val.(logrus.FieldLogger); ok {
			return l
		}
	}
	return logrus.StandardLogger()
}

// Recovery recovers from panics, logs them and returns a 500 error.
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID, _ := c.Get("request_id")
		log.WithFields(logrus.Fields{
			"module":     "http",
			"request_id": requestID,
			"panic":      recovered,
		}).Error("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "DEPENDENCY_FAILURE", "message": "an internal error occurred"},
		})
	})
}
