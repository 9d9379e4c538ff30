package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dbfixture/internal/responses"
	"dbfixture/internal/services"
	"dbfixture/internal/utils"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// TableOrder handles GET /api/v1/schemas/:schema/order
//
// Query parameters: tables, a comma separated subset; direction, insert
// (default) or delete.
func (h *SchemaHandler) TableOrder(c *gin.Context) {
	schema := c.Param("schema")
	tables := utils.SplitList(c.Query("tables"))

	switch direction := c.DefaultQuery("direction", "insert"); direction {
	case "insert":
		order, err := h.schemaService.TableOrder(c.Request.Context(), schema, tables)
		if err != nil {
			fail(c, err, "Failed to compute table order")
			return
		}
		responses.Success(c, http.StatusOK, gin.H{
			"schema": schema,
			"order":  order,
		}, "Insert order computed successfully")

	case "delete":
		order, err := h.schemaService.DeleteOrder(c.Request.Context(), schema, tables)
		if err != nil {
			fail(c, err, "Failed to compute table order")
			return
		}
		responses.Success(c, http.StatusOK, gin.H{
			"schema": schema,
			"order":  order,
		}, "Delete order computed successfully")

	default:
		responses.Fail(c, http.StatusBadRequest, nil, "direction must be insert or delete")
	}
}

// VisualizeSchema handles GET /api/v1/schemas/:schema/visualize
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	schema := c.Param("schema")

	mermaidDiagram, err := h.schemaService.VisualizeSchema(c.Request.Context(), schema)
	if err != nil {
		fail(c, err, "Failed to visualize schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"mermaid": mermaidDiagram,
		"schema":  schema,
	}, "Schema visualization generated successfully")
}

func fail(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error(message)
	}
	responses.Fail(c, status, err, message)
}
