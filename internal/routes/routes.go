package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dbfixture/internal/config"
	"dbfixture/internal/handlers"
)

func RegisterRoutes(router *gin.Engine, cfg config.ServerConfig, schemaHandler *handlers.SchemaHandler, fixtureHandler *handlers.FixtureHandler) {
	api := router.Group("/api/v1")

	schemaRoutes := NewSchemaRoutes(schemaHandler, cfg.APIToken)
	schemaRoutes.RegisterRoutes(api)

	fixtureRoutes := NewFixtureRoutes(fixtureHandler, cfg.APIToken, cfg.ReadOnly)
	fixtureRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
