package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエストIDを返すヘッダー名です。
const RequestIDHeader = "X-Request-ID"

// RequestLogger はリクエストごとに1行の構造化ログを出力するミドルウェアです。
// クライアントが X-Request-ID を付けていない場合は UUID を採番します。
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			logger.ErrorContext(c.Request.Context(), "request", attrs...)
		case status >= 400:
			logger.WarnContext(c.Request.Context(), "request", attrs...)
		default:
			logger.InfoContext(c.Request.Context(), "request", attrs...)
		}
	}
}
