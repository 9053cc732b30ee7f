package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// PartnerHandler exposes customer/vendor directory endpoints.
type PartnerHandler struct {
	partnerService service.PartnerService
}

func NewPartnerHandler(partnerService service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	partners := router.Group("/api/partners")
	{
		partners.POST("", middleware.RequirePermission("partners.write"), h.Create)
		partners.GET("", middleware.RequirePermission("partners.read"), h.List)
		partners.GET("/:id", middleware.RequirePermission("partners.read"), h.Get)
		partners.PUT("/:id", middleware.RequirePermission("partners.write"), h.Update)
		partners.DELETE("/:id", middleware.RequirePermission("partners.write"), h.Delete)
	}
}

// Create godoc
// @Summary      Create a partner
// @Description  Registers a customer or vendor
// @Tags         partners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreatePartnerRequest true "Partner"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/partners [post]
func (h *PartnerHandler) Create(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	partner, err := h.partnerService.CreatePartner(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
}

// Update godoc
// @Summary      Update a partner
// @Tags         partners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                       true "Partner ID"
// @Param        request body service.UpdatePartnerRequest true "Fields to update"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/partners/{id} [put]
func (h *PartnerHandler) Update(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	partner, err := h.partnerService.UpdatePartner(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// Delete godoc
// @Summary      Delete a partner
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Partner ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/partners/{id} [delete]
func (h *PartnerHandler) Delete(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	if err := h.partnerService.DeletePartner(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// Get godoc
// @Summary      Get a partner
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Partner ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/partners/{id} [get]
func (h *PartnerHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	partner, err := h.partnerService.GetPartner(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// List godoc
// @Summary      List partners
// @Tags         partners
// @Produce      json
// @Security     BearerAuth
// @Param        type   query string false "Partner type filter (CUSTOMER or VENDOR)"
// @Param        search query string false "Name search"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/partners [get]
func (h *PartnerHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	partners, total, err := h.partnerService.ListPartners(c.Request.Context(), tenantID, c.Query("type"), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": partners,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
