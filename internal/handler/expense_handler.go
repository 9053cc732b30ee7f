package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler exposes expense claim endpoints.
type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	{
		expenses.POST("", middleware.RequirePermission("expenses.write"), h.Create)
		expenses.GET("", middleware.RequirePermission("expenses.read"), h.List)
		expenses.GET("/:id", middleware.RequirePermission("expenses.read"), h.Get)
		expenses.POST("/:id/submit", middleware.RequirePermission("expenses.write"), h.Submit)
	}
}

// Create godoc
// @Summary      Create an expense claim
// @Description  Creates a draft expense; non-USD amounts require an exchange rate and are converted for threshold checks
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreateExpenseRequest true "Expense"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), tenantID, companyID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// Submit godoc
// @Summary      Submit an expense claim for approval
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/expenses/{id}/submit [post]
func (h *ExpenseHandler) Submit(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.SubmitExpense(c.Request.Context(), tenantID, companyID, userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// Get godoc
// @Summary      Get an expense claim
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// List godoc
// @Summary      List expense claims
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Status filter"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), tenantID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": expenses,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
