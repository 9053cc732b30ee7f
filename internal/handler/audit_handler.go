package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes audit trail read endpoints.
type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/api/audit-logs")
	{
		logs.GET("", middleware.RequirePermission("audit.read"), h.List)
		logs.GET("/entity/:entityId", middleware.RequirePermission("audit.read"), h.ListByEntity)
	}
}

// List godoc
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        action query string false "Action filter"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	logs, total, err := h.auditService.ListLogs(c.Request.Context(), tenantID, c.Query("action"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// ListByEntity godoc
// @Summary      List audit logs for an entity
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        entityId path string true "Entity ID"
// @Success      200 {object} response.Response
// @Router       /api/audit-logs/entity/{entityId} [get]
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	logs, err := h.auditService.ListByEntity(c.Request.Context(), tenantID, c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
