package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// WorkflowHandler exposes the workflow definition admin endpoints.
type WorkflowHandler struct {
	workflowService service.WorkflowAdminService
}

func NewWorkflowHandler(workflowService service.WorkflowAdminService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	workflows := router.Group("/api/workflows")
	{
		workflows.POST("", middleware.RequirePermission("workflows.manage"), h.Create)
		workflows.GET("", middleware.RequirePermission("workflows.read"), h.List)
		workflows.GET("/:id", middleware.RequirePermission("workflows.read"), h.Get)
		workflows.PUT("/:id", middleware.RequirePermission("workflows.manage"), h.Update)
		workflows.DELETE("/:id", middleware.RequirePermission("workflows.manage"), h.Delete)
	}
}

// Create godoc
// @Summary      Create a workflow definition
// @Description  Creates a workflow definition with its steps, conditions and escalation rules
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.SaveWorkflowDefinitionRequest true "Workflow definition"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.SaveWorkflowDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	definition, err := h.workflowService.CreateDefinition(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, definition))
}

// List godoc
// @Summary      List workflow definitions
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type query string false "Entity type filter"
// @Param        page        query int    false "Page number"
// @Param        limit       query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	definitions, total, err := h.workflowService.ListDefinitions(c.Request.Context(), tenantID, c.Query("entity_type"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": definitions,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// Get godoc
// @Summary      Get a workflow definition
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Definition ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/workflows/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	definition, err := h.workflowService.GetDefinition(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, definition))
}

// Update godoc
// @Summary      Update a workflow definition
// @Description  Replaces the definition's steps, conditions and escalation rules
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                                 true "Definition ID"
// @Param        request body service.SaveWorkflowDefinitionRequest true "Workflow definition"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/workflows/{id} [put]
func (h *WorkflowHandler) Update(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.SaveWorkflowDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	definition, err := h.workflowService.UpdateDefinition(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, definition))
}

// Delete godoc
// @Summary      Delete a workflow definition
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Definition ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/workflows/{id} [delete]
func (h *WorkflowHandler) Delete(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	if err := h.workflowService.DeleteDefinition(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
