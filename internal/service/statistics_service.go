package service

import (
	"context"
	"time"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type ApprovalDashboardResponse struct {
	RequestsByStatus map[string]int64                `json:"requests_by_status"`
	Throughput       []repository.ApprovalThroughput `json:"throughput"`
	PeriodStart      string                          `json:"period_start"`
	PeriodEnd        string                          `json:"period_end"`
}

type InvoiceSummaryResponse struct {
	Status      string `json:"status"`
	TotalAmount string `json:"total_amount"`
	Count       int64  `json:"count"`
}

// --- Interface ---

// StatisticsService serves the operator dashboard: approval queue depth,
// decision throughput over a period, and invoice totals.
type StatisticsService interface {
	GetApprovalDashboard(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*ApprovalDashboardResponse, error)
	GetInvoiceSummary(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]InvoiceSummaryResponse, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo}
}

// --- Implementation ---

func (s *statisticsService) GetApprovalDashboard(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*ApprovalDashboardResponse, error) {
	counts, err := s.statsRepo.CountRequestsByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	throughput, err := s.statsRepo.GetApprovalThroughput(ctx, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	return &ApprovalDashboardResponse{
		RequestsByStatus: counts,
		Throughput:       throughput,
		PeriodStart:      start.Format(time.RFC3339),
		PeriodEnd:        end.Format(time.RFC3339),
	}, nil
}

func (s *statisticsService) GetInvoiceSummary(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]InvoiceSummaryResponse, error) {
	statuses := []string{
		model.InvoiceStatusDraft,
		model.InvoiceStatusPendingApproval,
		model.InvoiceStatusApproved,
		model.InvoiceStatusRejected,
		model.InvoiceStatusPaid,
	}

	result := make([]InvoiceSummaryResponse, 0, len(statuses))
	for _, status := range statuses {
		total, count, err := s.statsRepo.GetInvoiceTotalByStatus(ctx, tenantID, status, start, end)
		if err != nil {
			return nil, err
		}
		result = append(result, InvoiceSummaryResponse{
			Status:      status,
			TotalAmount: total,
			Count:       count,
		})
	}
	return result, nil
}
