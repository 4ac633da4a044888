package modules

import (
	"github.com/gin-gonic/gin"

	"authgate/internal/interface/web"
)

// WebModule registers the minimal HTML pages the route guard navigates between.
type WebModule struct {
	Handler *web.PageHandler
}

func NewWebModule(h *web.PageHandler) *WebModule {
	return &WebModule{Handler: h}
}

func (m *WebModule) RegisterPages(e *gin.Engine) {
	e.GET("/", m.Handler.Home)
	e.GET("/login", m.Handler.Login)
	e.GET("/register", m.Handler.Register)
	e.GET("/edit", m.Handler.Edit)
}
