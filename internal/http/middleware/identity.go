package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the Gin context key of the authenticated username.
const userIDKey = "userID"

// Identify stores the identity returned by resolve under "userID" so that
// logging, rate limiting and idempotency can key on it. resolve returns ""
// for anonymous requests. Identify never rejects a request; the controller
// decides what an anonymous visitor may do.
func Identify(resolve func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolve != nil {
			if id := resolve(c); id != "" {
				c.Set(userIDKey, id)
			}
		}
		c.Next()
	}
}

// UserID returns the identity stored by Identify, or "".
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		return asString(v)
	}
	return ""
}
