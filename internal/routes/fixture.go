package routes

import (
	"github.com/gin-gonic/gin"

	"dbfixture/internal/handlers"
	"dbfixture/internal/middlewares"
)

type FixtureRoutes struct {
	handler  *handlers.FixtureHandler
	apiToken string
	readOnly bool
}

func NewFixtureRoutes(handler *handlers.FixtureHandler, apiToken string, readOnly bool) *FixtureRoutes {
	return &FixtureRoutes{handler: handler, apiToken: apiToken, readOnly: readOnly}
}

func (r *FixtureRoutes) RegisterRoutes(router *gin.RouterGroup) {
	fixtures := router.Group("/schemas/:schema")
	fixtures.Use(middlewares.Authenticate(r.apiToken))
	{
		// Read-only endpoints
		fixtures.POST("/subset", r.handler.Subset)
		fixtures.POST("/verify", r.handler.Verify)
		fixtures.GET("/export", r.handler.Export)

		// Endpoints that modify the database
		fixtures.POST("/load", middlewares.RequireWritable(r.readOnly), r.handler.Load)
	}
}
