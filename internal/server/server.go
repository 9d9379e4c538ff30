package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dbfixture/internal/config"
	"dbfixture/internal/handlers"
	"dbfixture/internal/middlewares"
	"dbfixture/internal/repositories"
	"dbfixture/internal/routes"
	"dbfixture/internal/services"
)

// NewRouter builds the gin engine serving the fixture API over store.
func NewRouter(cfg *config.Config, store repositories.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger())

	if len(cfg.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
			ExposeHeaders:    []string{middlewares.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		router.Use(cors.Default())
	}

	// Dependency injection
	schemaService := services.NewSchemaService(store, cfg.Fixture)
	fixtureService := services.NewFixtureService(store, cfg.Fixture)
	schemaHandler := handlers.NewSchemaHandler(schemaService)
	fixtureHandler := handlers.NewFixtureHandler(fixtureService)

	routes.RegisterRoutes(router, cfg.Server, schemaHandler, fixtureHandler)
	return router
}

func NewServer(cfg *config.Config, store repositories.Store) *http.Server {
	// Create and configure the HTTP server
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      NewRouter(cfg, store),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
