package handler

import (
	"net/http"
	"time"

	"erpapi/internal/middleware"
	"erpapi/internal/service"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// StatisticsHandler exposes dashboard aggregate endpoints.
type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statistics := router.Group("/api/statistics")
	{
		statistics.GET("/approvals", middleware.RequirePermission("statistics.read"), h.ApprovalDashboard)
		statistics.GET("/invoices", middleware.RequirePermission("statistics.read"), h.InvoiceSummary)
	}
}

// parsePeriod reads the start/end query params, defaulting to the last 30 days.
func parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}
	return start, end, nil
}

// ApprovalDashboard godoc
// @Summary      Approval dashboard
// @Description  Request counts by status plus decision throughput over the period
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        start query string false "RFC3339 period start (default: 30 days ago)"
// @Param        end   query string false "RFC3339 period end (default: now)"
// @Success      200 {object} response.Response
// @Router       /api/statistics/approvals [get]
func (h *StatisticsHandler) ApprovalDashboard(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	start, end, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid period, expected RFC3339 dates"))
		return
	}

	dashboard, err := h.statisticsService.GetApprovalDashboard(c.Request.Context(), tenantID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}

// InvoiceSummary godoc
// @Summary      Invoice totals by status
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        start query string false "RFC3339 period start (default: 30 days ago)"
// @Param        end   query string false "RFC3339 period end (default: now)"
// @Success      200 {object} response.Response
// @Router       /api/statistics/invoices [get]
func (h *StatisticsHandler) InvoiceSummary(c *gin.Context) {
	_, tenantID, _, ok := authScope(c)
	if !ok {
		return
	}

	start, end, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid period, expected RFC3339 dates"))
		return
	}

	summary, err := h.statisticsService.GetInvoiceSummary(c.Request.Context(), tenantID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
