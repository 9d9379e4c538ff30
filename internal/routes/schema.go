package routes

import (
	"github.com/gin-gonic/gin"

	"dbfixture/internal/handlers"
	"dbfixture/internal/middlewares"
)

type SchemaRoutes struct {
	handler  *handlers.SchemaHandler
	apiToken string
}

func NewSchemaRoutes(handler *handlers.SchemaHandler, apiToken string) *SchemaRoutes {
	return &SchemaRoutes{handler: handler, apiToken: apiToken}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	schema := router.Group("/schemas/:schema")
	schema.Use(middlewares.Authenticate(r.apiToken))
	{
		schema.GET("/order", r.handler.TableOrder)
		schema.GET("/visualize", r.handler.VisualizeSchema)
	}
}
