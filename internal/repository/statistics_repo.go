package repository

import (
	"context"
	"time"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalThroughput is one bucket of decided approvals per decision value.
type ApprovalThroughput struct {
	Decision string `json:"decision"`
	Count    int64  `json:"count"`
}

// StatisticsRepository serves the dashboard aggregates: approval queue
// depth, throughput, and invoice totals per status.
type StatisticsRepository interface {
	CountRequestsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error)
	GetApprovalThroughput(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]ApprovalThroughput, error)
	GetInvoiceTotalByStatus(ctx context.Context, tenantID uuid.UUID, status string, start, end time.Time) (string, int64, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountRequestsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.ApprovalRequest{}).
		Select("status, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *statisticsRepository) GetApprovalThroughput(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]ApprovalThroughput, error) {
	var rows []ApprovalThroughput
	if err := r.db.WithContext(ctx).Table("approvals").
		Select("approvals.decision, COUNT(*) as count").
		Joins("JOIN approval_requests req ON req.id = approvals.request_id").
		Where("req.tenant_id = ? AND approvals.processed_at >= ? AND approvals.processed_at <= ?", tenantID, start, end).
		Group("approvals.decision").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *statisticsRepository) GetInvoiceTotalByStatus(ctx context.Context, tenantID uuid.UUID, status string, start, end time.Time) (string, int64, error) {
	var result struct {
		Value string
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COALESCE(CAST(SUM(total_amount) AS TEXT), '0') as value, COUNT(*) as count").
		Where("tenant_id = ? AND status = ? AND created_at >= ? AND created_at <= ?", tenantID, status, start, end).
		Scan(&result).Error; err != nil {
		return "", 0, err
	}
	return result.Value, result.Count, nil
}
