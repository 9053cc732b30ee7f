package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// InventoryHandler exposes product and stock endpoints.
type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.POST("", middleware.RequirePermission("inventory.write"), h.CreateProduct)
		products.GET("", middleware.RequirePermission("inventory.read"), h.ListProducts)
		products.GET("/:id", middleware.RequirePermission("inventory.read"), h.GetProduct)
		products.PUT("/:id", middleware.RequirePermission("inventory.write"), h.UpdateProduct)
		products.POST("/:id/adjust-stock", middleware.RequirePermission("inventory.adjust"), h.AdjustStock)
		products.GET("/:id/transactions", middleware.RequirePermission("inventory.read"), h.ListTransactions)
	}
}

// CreateProduct godoc
// @Summary      Create a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreateProductRequest true "Product"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.inventoryService.CreateProduct(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct godoc
// @Summary      Update a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                       true "Product ID"
// @Param        request body service.UpdateProductRequest true "Fields to update"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// AdjustStock godoc
// @Summary      Adjust product stock
// @Description  Applies a signed stock adjustment and records the inventory transaction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                     true "Product ID"
// @Param        request body service.AdjustStockRequest true "Adjustment"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/products/{id}/adjust-stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.inventoryService.AdjustStock(c.Request.Context(), tenantID, userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// GetProduct godoc
// @Summary      Get a product
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	product, err := h.inventoryService.GetProduct(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// ListProducts godoc
// @Summary      List products
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Name or SKU search"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/products [get]
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	products, total, err := h.inventoryService.ListProducts(c.Request.Context(), tenantID, params.Page, params.Limit, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": products,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// ListTransactions godoc
// @Summary      List inventory transactions for a product
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Product ID"
// @Param        page  query int    false "Page number"
// @Param        limit query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/products/{id}/transactions [get]
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	transactions, total, err := h.inventoryService.ListTransactions(c.Request.Context(), tenantID, c.Param("id"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": transactions,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
