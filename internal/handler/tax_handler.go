package handler

import (
	"net/http"
	"time"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// TaxHandler exposes tax rule endpoints.
type TaxHandler struct {
	taxService service.TaxService
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	taxRules := router.Group("/api/tax-rules")
	{
		taxRules.POST("", middleware.RequirePermission("tax.write"), h.Create)
		taxRules.GET("", middleware.RequirePermission("tax.read"), h.List)
		taxRules.GET("/active", middleware.RequirePermission("tax.read"), h.GetActiveRate)
		taxRules.GET("/:id", middleware.RequirePermission("tax.read"), h.Get)
		taxRules.DELETE("/:id", middleware.RequirePermission("tax.write"), h.Delete)
	}
}

// Create godoc
// @Summary      Create a tax rule
// @Description  Creates a tax rule with an effective date window
// @Tags         tax
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreateTaxRuleRequest true "Tax rule"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/tax-rules [post]
func (h *TaxHandler) Create(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreateTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.taxService.CreateTaxRule(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// GetActiveRate godoc
// @Summary      Get the active tax rule for a type
// @Description  Returns the tax rule in effect for the given type at the given date (defaults to now)
// @Tags         tax
// @Produce      json
// @Security     BearerAuth
// @Param        type query string true  "Tax type (e.g. VAT)"
// @Param        at   query string false "RFC3339 date, defaults to now"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/tax-rules/active [get]
func (h *TaxHandler) GetActiveRate(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	taxType := c.Query("type")
	if taxType == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Query parameter 'type' is required"))
		return
	}

	at := time.Now()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'at' date, expected RFC3339"))
			return
		}
		at = parsed
	}

	rule, err := h.taxService.GetActiveRate(c.Request.Context(), tenantID, taxType, at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// Get godoc
// @Summary      Get a tax rule
// @Tags         tax
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Tax rule ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/tax-rules/{id} [get]
func (h *TaxHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	rule, err := h.taxService.GetTaxRule(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// Delete godoc
// @Summary      Delete a tax rule
// @Tags         tax
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Tax rule ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/tax-rules/{id} [delete]
func (h *TaxHandler) Delete(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	if err := h.taxService.DeleteTaxRule(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// List godoc
// @Summary      List tax rules
// @Tags         tax
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page number"
// @Param        limit query int false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/tax-rules [get]
func (h *TaxHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	rules, total, err := h.taxService.ListTaxRules(c.Request.Context(), tenantID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": rules,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
