package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/pkg/helpers"
)

// publicPrefixes are the paths reachable without a session.
var publicPrefixes = []string{
	"/login",
	"/register",
	"/api/auth",
	"/favicon.ico",
	"/static",
}

// Guard gates every incoming request. Decision table, evaluated in order:
//  1. authenticated on /login or /register -> redirect to /
//  2. public-prefix allowlist -> pass through
//  3. unauthenticated -> redirect to /login with the original URL as callbackurl
//  4. authenticated on a protected path -> pass through
//
// The token is trusted verbatim; no store lookup happens here.
func Guard(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		authed := false
		if token, err := c.Cookie(helpers.SessionCookieName); err == nil && token != "" {
			if _, err := jwt.ParseSessionToken(token); err == nil {
				authed = true
			}
		}

		if authed && (strings.HasPrefix(path, "/login") || strings.HasPrefix(path, "/register")) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		for _, p := range publicPrefixes {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}

		if !authed {
			c.Redirect(http.StatusFound, "/login?callbackurl="+url.QueryEscape(originalURL(c)))
			c.Abort()
			return
		}

		c.Next()
	}
}

// originalURL rebuilds the absolute URL of the request for the login callback.
func originalURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
