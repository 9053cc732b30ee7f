package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// PurchaseOrderHandler exposes purchase order endpoints.
type PurchaseOrderHandler struct {
	orderService service.PurchaseOrderService
}

func NewPurchaseOrderHandler(orderService service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/purchase-orders")
	{
		orders.POST("", middleware.RequirePermission("purchase_orders.write"), h.Create)
		orders.GET("", middleware.RequirePermission("purchase_orders.read"), h.List)
		orders.GET("/:id", middleware.RequirePermission("purchase_orders.read"), h.Get)
		orders.POST("/:id/submit", middleware.RequirePermission("purchase_orders.write"), h.Submit)
		orders.POST("/:id/receive", middleware.RequirePermission("purchase_orders.receive"), h.Receive)
	}
}

// Create godoc
// @Summary      Create a purchase order
// @Description  Creates a draft purchase order against a vendor partner
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreatePurchaseOrderRequest true "Purchase order"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), tenantID, companyID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// Submit godoc
// @Summary      Submit a purchase order for approval
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/purchase-orders/{id}/submit [post]
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	order, err := h.orderService.SubmitOrder(c.Request.Context(), tenantID, companyID, userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Receive godoc
// @Summary      Receive an approved purchase order
// @Description  Marks the order received and books the stock movements for its items
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	order, err := h.orderService.ReceiveOrder(c.Request.Context(), tenantID, userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Get godoc
// @Summary      Get a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// List godoc
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Status filter"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), tenantID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": orders,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
