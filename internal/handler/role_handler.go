package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// RoleHandler exposes role and permission management endpoints.
type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles")
	{
		roles.POST("", middleware.RequirePermission("roles.write"), h.Create)
		roles.GET("", middleware.RequirePermission("roles.read"), h.List)
		roles.GET("/:id", middleware.RequirePermission("roles.read"), h.Get)
		roles.PUT("/:id/permissions", middleware.RequirePermission("roles.write"), h.UpdatePermissions)
		roles.DELETE("/:id", middleware.RequirePermission("roles.write"), h.Delete)
	}

	router.GET("/api/permissions", middleware.RequirePermission("roles.read"), h.ListPermissions)
}

// Create godoc
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreateRoleRequest true "Role"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdatePermissions godoc
// @Summary      Replace a role's permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                               true "Role ID"
// @Param        request body service.UpdateRolePermissionsRequest true "Permission IDs"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/roles/{id}/permissions [put]
func (h *RoleHandler) UpdatePermissions(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdatePermissions(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Cached permission codes for this role are now stale.
	middleware.ClearPermissionCache(role.Name)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// Delete godoc
// @Summary      Delete a role
// @Description  Removes a role; system roles cannot be deleted
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Role ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// Get godoc
// @Summary      Get a role with its permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Role ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// List godoc
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	roles, err := h.roleService.ListRoles(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// ListPermissions godoc
// @Summary      List all permission codes
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, permissions))
}
