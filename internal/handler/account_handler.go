package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler exposes chart of accounts endpoints.
type AccountHandler struct {
	accountService service.AccountService
}

func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	accounts := router.Group("/api/accounts")
	{
		accounts.POST("", middleware.RequirePermission("accounts.write"), h.Create)
		accounts.GET("", middleware.RequirePermission("accounts.read"), h.List)
		accounts.GET("/:id", middleware.RequirePermission("accounts.read"), h.Get)
		accounts.PUT("/:id", middleware.RequirePermission("accounts.write"), h.Update)
		accounts.DELETE("/:id", middleware.RequirePermission("accounts.write"), h.Delete)
	}
}

// Create godoc
// @Summary      Create an account
// @Description  Adds an account to the tenant's chart of accounts
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreateAccountRequest true "Account"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, account))
}

// Update godoc
// @Summary      Update an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                       true "Account ID"
// @Param        request body service.UpdateAccountRequest true "Fields to update"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), tenantID, userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

// Delete godoc
// @Summary      Delete an account
// @Description  Removes an account; accounts with children cannot be deleted
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	userID, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), tenantID, userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// Get godoc
// @Summary      Get an account
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

// List godoc
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        type  query string false "Account type filter"
// @Param        page  query int    false "Page number"
// @Param        limit query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	accounts, total, err := h.accountService.ListAccounts(c.Request.Context(), tenantID, c.Query("type"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": accounts,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
