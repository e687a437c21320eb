package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/printapi/backend/internal/interfaces/http/router"
)

// PrintRoutes creates the route group for print endpoints
func PrintRoutes(h *PrintHandler, middlewares ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")
	group.Use(middlewares...)

	group.POST("", h.Print)
	group.GET("/options", h.Options)

	return group
}

// RegisterRootPrintRoutes keeps POST / and POST /print working for clients of
// the unversioned endpoint.
func RegisterRootPrintRoutes(engine *gin.Engine, h *PrintHandler, middlewares ...gin.HandlerFunc) {
	chain := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	chain = append(chain, middlewares...)
	chain = append(chain, h.Print)

	engine.POST("/", chain...)
	engine.POST("/print", chain...)
}

// RegisterHealthRoutes exposes GET /health outside the API prefix.
func RegisterHealthRoutes(engine *gin.Engine, h *HealthHandler) {
	engine.GET("/health", h.Health)
}
