package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 访问日志中间件
func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		requestID, _ := p.Keys[RequestIDKey].(string)
		line := fmt.Sprintf("[API] %s | %3d | %10v | %-7s %s | rid=%s",
			p.TimeStamp.Format(time.RFC3339),
			p.StatusCode,
			p.Latency.Truncate(time.Microsecond),
			p.Method,
			p.Path,
			requestID,
		)
		if p.ErrorMessage != "" {
			line += " | " + p.ErrorMessage
		}
		return line + "\n"
	})
}
