package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	requestStartKey   = "request_start"
	processingTimeKey = "processing_time_ms"
)

// WithResponseMeta stamps the request start so handlers can report processing time in meta.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// ResponseMeta adds processing_time_ms to meta, allocating it when nil. Requests that did not pass
// through WithResponseMeta are returned unchanged.
func ResponseMeta(c *gin.Context, meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		meta = make(map[string]interface{})
	}
	if c == nil {
		return meta
	}
	if v, ok := c.Get(requestStartKey); ok {
		if start, ok := v.(time.Time); ok {
			meta[processingTimeKey] = time.Since(start).Milliseconds()
		}
	}
	return meta
}
