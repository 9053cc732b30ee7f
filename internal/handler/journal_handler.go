package handler

import (
	"net/http"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/pagination"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// JournalHandler exposes journal entry endpoints.
type JournalHandler struct {
	journalService service.JournalService
}

func NewJournalHandler(journalService service.JournalService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

func (h *JournalHandler) RegisterRoutes(router *gin.RouterGroup) {
	entries := router.Group("/api/journal-entries")
	{
		entries.POST("", middleware.RequirePermission("journal.write"), h.Create)
		entries.GET("", middleware.RequirePermission("journal.read"), h.List)
		entries.GET("/:id", middleware.RequirePermission("journal.read"), h.Get)
		entries.POST("/:id/submit", middleware.RequirePermission("journal.write"), h.Submit)
	}
}

// Create godoc
// @Summary      Create a journal entry
// @Description  Creates a balanced draft journal entry with its debit/credit lines
// @Tags         journal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body service.CreateJournalEntryRequest true "Journal entry"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/journal-entries [post]
func (h *JournalHandler) Create(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	var req service.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.journalService.CreateEntry(c.Request.Context(), tenantID, companyID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// Submit godoc
// @Summary      Submit a journal entry for approval
// @Description  Routes the draft entry through the applicable approval workflow; posts it directly when none applies
// @Tags         journal
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entry ID"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/journal-entries/{id}/submit [post]
func (h *JournalHandler) Submit(c *gin.Context) {
	userID, tenantID, companyID, ok := authScope(c)
	if !ok {
		return
	}

	entry, err := h.journalService.SubmitEntry(c.Request.Context(), tenantID, companyID, userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// Get godoc
// @Summary      Get a journal entry
// @Tags         journal
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entry ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Router       /api/journal-entries/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	entry, err := h.journalService.GetEntry(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// List godoc
// @Summary      List journal entries
// @Tags         journal
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Status filter"
// @Param        page   query int    false "Page number"
// @Param        limit  query int    false "Items per page"
// @Success      200 {object} response.Response
// @Router       /api/journal-entries [get]
func (h *JournalHandler) List(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	entries, total, err := h.journalService.ListEntries(c.Request.Context(), tenantID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": entries,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
