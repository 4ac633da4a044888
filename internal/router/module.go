package router

import "github.com/gin-gonic/gin"

// Module describes a feature module that can register its routes on a RouterGroup
type Module interface {
	Register(rg *gin.RouterGroup)
}

// PageModule registers HTML page routes directly on the engine.
type PageModule interface {
	RegisterPages(e *gin.Engine)
}
