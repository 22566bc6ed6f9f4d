package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for boundary markers and part headers so the
// limit applies to the file payload rather than the raw body.
const multipartOverhead = 8 * 1024

// SizeLimit caps the request body at maxBodyBytes. Reads past the cap fail
// with http.MaxBytesError, which handlers surface as 413.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes+multipartOverhead)
		c.Next()
	}
}
