package middleware

import (
	"log"
	"time"

	"pontox/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an id (the caller's, when it sent one) and logs
// method, path, status and latency once the request completes.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		start := time.Now()
		c.Next()
		if c.Writer.Status() >= 500 {
			log.Printf("[http] %s %s %d %s request_id=%s errors=%s", c.Request.Method, c.Request.URL.Path,
				c.Writer.Status(), time.Since(start).Round(time.Millisecond), id, c.Errors.String())
		}
	}
}

// AuditMeta extracts the client details recorded alongside admin actions.
func AuditMeta(c *gin.Context) service.AuditMeta {
	ua := c.Request.UserAgent()
	if len(ua) > 255 {
		ua = ua[:255]
	}
	return service.AuditMeta{IP: c.ClientIP(), UserAgent: ua}
}
