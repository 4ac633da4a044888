package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authgate/pkg/helpers"
	"authgate/pkg/response"
)

const CtxUserIDKey = "userID"

// Auth reads the session cookie, validates the token, and injects the claim
// snapshot into the Gin context. The claims are trusted verbatim until expiry;
// no per-request store check is made.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.SessionCookieName)
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing session token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseSessionToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid session token", nil)
			c.Abort()
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set("userName", claims.Name)
		c.Set("userEmail", claims.Email)
		c.Next()
	}
}
