package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dbfixture/internal/responses"
	"dbfixture/internal/services"
	"dbfixture/internal/utils"
)

type FixtureHandler struct {
	fixtureService *services.FixtureService
}

func NewFixtureHandler(fixtureService *services.FixtureService) *FixtureHandler {
	return &FixtureHandler{
		fixtureService: fixtureService,
	}
}

// Subset handles POST /api/v1/schemas/:schema/subset
func (h *FixtureHandler) Subset(c *gin.Context) {
	var req services.SubsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body: seed is required")
		return
	}

	tables, err := h.fixtureService.Subset(c.Request.Context(), c.Param("schema"), &req)
	if err != nil {
		fail(c, err, "Failed to extract subset")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"tables": tables}, "Subset extracted successfully")
}

// Load handles POST /api/v1/schemas/:schema/load
func (h *FixtureHandler) Load(c *gin.Context) {
	var req services.LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body: tables are required")
		return
	}

	n, err := h.fixtureService.Load(c.Request.Context(), c.Param("schema"), &req)
	if err != nil {
		fail(c, err, "Failed to load fixture")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"operation":     req.Operation,
		"rows_affected": n,
	}, "Fixture loaded successfully")
}

// Verify handles POST /api/v1/schemas/:schema/verify
func (h *FixtureHandler) Verify(c *gin.Context) {
	var req services.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body: tables are required")
		return
	}

	result, err := h.fixtureService.Verify(c.Request.Context(), c.Param("schema"), &req)
	if err != nil {
		fail(c, err, "Failed to verify fixture")
		return
	}

	message := "Database matches the expected tables"
	if !result.Equal {
		message = "Database differs from the expected tables"
	}
	responses.Success(c, http.StatusOK, result, message)
}

// Export handles GET /api/v1/schemas/:schema/export
//
// Query parameters: include, exclude and exclude_columns, each a comma
// separated list of globs.
func (h *FixtureHandler) Export(c *gin.Context) {
	opts := services.ExportOptions{
		Include:        utils.SplitList(c.Query("include")),
		Exclude:        utils.SplitList(c.Query("exclude")),
		ExcludeColumns: utils.SplitList(c.Query("exclude_columns")),
	}

	tables, err := h.fixtureService.Export(c.Request.Context(), c.Param("schema"), opts)
	if err != nil {
		fail(c, err, "Failed to export tables")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"tables": tables}, "Tables exported successfully")
}
