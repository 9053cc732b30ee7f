package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApprovalHandler exposes the approval inbox and request tracking endpoints.
type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	{
		approvals.GET("/pending", middleware.RequirePermission("approvals.read"), h.ListPending)
		approvals.POST("/:id/action", middleware.RequirePermission("approvals.act"), h.Act)
	}

	requests := router.Group("/api/approval-requests")
	{
		requests.GET("", middleware.RequirePermission("approvals.read"), h.ListRequests)
		requests.GET("/stalled", middleware.RequirePermission("approvals.admin"), h.ListStalled)
		requests.GET("/:id", middleware.RequirePermission("approvals.read"), h.GetRequest)
	}
}

type approvalActionRequest struct {
	Action           string `json:"action" binding:"required,oneof=APPROVE REJECT ESCALATE"`
	Comments         string `json:"comments"`
	EscalationReason string `json:"escalation_reason"`
}

// ListPending godoc
// @Summary      List pending approvals for the current user
// @Description  Returns the approval rows awaiting a decision from the authenticated approver
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response
// @Router       /api/approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	approvals, err := h.approvalService.ListPendingApprovals(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, approvals))
}

// Act godoc
// @Summary      Act on a pending approval
// @Description  Approves, rejects or escalates a pending approval assigned to the current user
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string                 true "Approval ID"
// @Param        request body  approvalActionRequest  true "Decision"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Failure      403 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/approvals/{id}/action [post]
func (h *ApprovalHandler) Act(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	approvalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid approval id"))
		return
	}

	var req approvalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.approvalService.ProcessApprovalAction(c.Request.Context(), service.ApprovalActionInput{
		TenantID:         tenantID,
		ApprovalID:       approvalID,
		ActorID:          userID,
		Action:           req.Action,
		Comments:         req.Comments,
		EscalationReason: req.EscalationReason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// ListRequests godoc
// @Summary      List approval requests
// @Description  Lists approval requests for the tenant, optionally filtered by status
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Request status filter"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/approval-requests [get]
func (h *ApprovalHandler) ListRequests(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	requests, total, err := h.approvalService.ListRequests(c.Request.Context(), tenantID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": requests,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// ListStalled godoc
// @Summary      List stalled approval requests
// @Description  Returns pending requests that have no actionable approval rows left
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/approval-requests/stalled [get]
func (h *ApprovalHandler) ListStalled(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	requests, err := h.approvalService.ListStalledRequests(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// GetRequest godoc
// @Summary      Get an approval request
// @Description  Returns an approval request with its approval rows
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Request ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/approval-requests/{id} [get]
func (h *ApprovalHandler) GetRequest(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request id"))
		return
	}

	request, err := h.approvalService.GetRequest(c.Request.Context(), tenantID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
