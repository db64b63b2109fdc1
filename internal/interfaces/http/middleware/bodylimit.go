package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bnpl/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that rejects request bodies larger than
// maxBytes. Declared Content-Length is checked up front; chunked uploads
// are capped by a MaxBytesReader so handlers fail on read instead.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(
					dto.ErrCodePayloadTooLarge,
					"Request body exceeds maximum allowed size",
					c.GetString("request_id"),
				))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
