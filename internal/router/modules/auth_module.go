package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"authgate/internal/container"
	handlers "authgate/internal/interface/http"
	"authgate/internal/interface/middleware"
	"authgate/pkg/helpers"
)

// AuthModule wires the auth surface:
// Public: POST /api/auth/register, POST /api/auth/login,
// GET /api/auth/google, GET /api/auth/google/callback
// Protected: PATCH /api/auth/edit, POST /api/auth/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath())
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP())

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.GET("/auth/google", m.Handler.GoogleRedirect)
	rg.GET("/auth/google/callback", m.Handler.GoogleCallback)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID()))
	{
		auth.PATCH("/auth/edit", m.Handler.Edit)
		auth.POST("/auth/logout", m.Handler.Logout)
	}
}
