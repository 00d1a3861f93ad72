package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Заголовки, которые выставляет шлюз после аутентификации
const (
	HeaderUserID  = "X-User-ID"
	HeaderOwnerID = "X-Owner-ID"

	callerIDKey = "caller_id"
)

// RequireUser пропускает только запросы с идентификатором клиента
func RequireUser() gin.HandlerFunc {
	return requireIdentity(HeaderUserID)
}

// RequireOwner пропускает только запросы с идентификатором владельца
func RequireOwner() gin.HandlerFunc {
	return requireIdentity(HeaderOwnerID)
}

// RequireCaller accepts either header, the user id first.
func RequireCaller() gin.HandlerFunc {
	return requireIdentity(HeaderUserID, HeaderOwnerID)
}

func requireIdentity(headers ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range headers {
			raw := strings.TrimSpace(c.GetHeader(h))
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "invalid " + h + " header",
				})
				return
			}
			c.Set(callerIDKey, id)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "missing " + strings.Join(headers, " or ") + " header",
		})
	}
}

// CallerID returns the identity stored by one of the Require middlewares.
func CallerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(callerIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
