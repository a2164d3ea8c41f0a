package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"acadef/backend/pkg/response"
)

// BodyLimit caps the request body at maxBytes. Multipart uploads of the
// registration wizard are bounded here before the per-file size check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Requête trop volumineuse")
			c.Abort()
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
