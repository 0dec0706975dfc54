package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/utils"
)

const CtxRequestID = "request_id"

// LoggerMiddleware tags every request with an id and logs it when done.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(CtxRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}

// AuditLogger records who ran an irreversible or money-moving action.
func AuditLogger(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := logrus.Fields{
			"action":     action,
			"user_id":    CurrentUserID(c),
			"role":       c.GetString(CtxRole),
			"request_id": c.GetString(CtxRequestID),
			"params":     c.Params,
			"status":     c.Writer.Status(),
		}
		if c.Writer.Status() < 300 {
			utils.InfoLogger.WithFields(fields).Info("audit")
		} else {
			utils.ErrorLogger.WithFields(fields).Warn("audit: action failed")
		}
	}
}
