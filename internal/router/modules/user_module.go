package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"authgate/internal/container"
	handlers "authgate/internal/interface/http"
	"authgate/internal/interface/middleware"
	"authgate/pkg/helpers"
)

// UserModule wires the user read surface:
// Protected: GET /api/user, GET /api/users/search
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID()),
	)
	{
		auth.GET("/user", m.Handler.Me)
		auth.GET("/users/search", m.Handler.Search)
	}
}
