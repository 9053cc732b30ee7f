package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler exposes invoice endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.POST("", middleware.RequirePermission("invoices.write"), h.Create)
		invoices.GET("", middleware.RequirePermission("invoices.read"), h.List)
		invoices.GET("/:id", middleware.RequirePermission("invoices.read"), h.Get)
		invoices.POST("/:id/submit", middleware.RequirePermission("invoices.write"), h.Submit)
		invoices.POST("/:id/pay", middleware.RequirePermission("invoices.write"), h.MarkPaid)
	}
}

// Create godoc
// @Summary      Create an invoice
// @Description  Creates a draft invoice; line totals and tax are computed server-side
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), tenantID, companyID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// Submit godoc
// @Summary      Submit an invoice for approval
// @Description  Routes the draft invoice through the applicable approval workflow; approves it directly when none applies
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/invoices/{id}/submit [post]
func (h *InvoiceHandler) Submit(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.SubmitInvoice(c.Request.Context(), tenantID, companyID, userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// MarkPaid godoc
// @Summary      Mark an approved invoice as paid
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// Get godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// List godoc
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Status filter"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": invoices,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
