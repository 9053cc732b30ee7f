package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	VendorID     string `json:"vendor_id"`
	Currency     string `json:"currency"`      // defaults to USD
	ExchangeRate string `json:"exchange_rate"` // required for non-USD
	Amount       string `json:"amount" binding:"required"`
	Category     string `json:"category"`
	Department   string `json:"department"`
	ReceiptURL   string `json:"receipt_url"`
	Description  string `json:"description"`
}

type ExpenseResponse struct {
	ID                 string  `json:"id"`
	VendorID           *string `json:"vendor_id,omitempty"`
	VendorName         string  `json:"vendor_name,omitempty"`
	Currency           string  `json:"currency"`
	ExchangeRate       string  `json:"exchange_rate"`
	OriginalAmount     string  `json:"original_amount"`
	ConvertedAmountUSD string  `json:"converted_amount_usd"`
	Category           string  `json:"category"`
	Department         string  `json:"department"`
	Status             string  `json:"status"`
	ReceiptURL         string  `json:"receipt_url"`
	Description        string  `json:"description"`
	CreatedAt          string  `json:"created_at"`
}

// --- Interface ---

// ExpenseService manages expense entries with multi-currency support.
// Approval is gated by the workflow engine using the USD-converted amount.
type ExpenseService interface {
	CreateExpense(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreateExpenseRequest) (ExpenseResponse, error)
	SubmitExpense(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (ExpenseResponse, error)
	GetExpense(ctx context.Context, tenantID uuid.UUID, id string) (ExpenseResponse, error)
	ListExpenses(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]ExpenseResponse, int64, error)
	HandleWorkflowOutcome(ctx context.Context, tenantID, expenseID uuid.UUID, outcome string) error
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	partnerRepo repository.PartnerRepository
	approvals   ApprovalService
	auditRepo   repository.AuditRepository
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	partnerRepo repository.PartnerRepository,
	approvals ApprovalService,
	auditRepo repository.AuditRepository,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		partnerRepo: partnerRepo,
		approvals:   approvals,
		auditRepo:   auditRepo,
	}
}

// --- Implementation ---

func (s *expenseService) CreateExpense(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreateExpenseRequest) (ExpenseResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return ExpenseResponse{}, fmt.Errorf("amount must be positive")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	exchangeRate := decimal.NewFromInt(1)
	if currency != "USD" {
		if req.ExchangeRate == "" {
			return ExpenseResponse{}, fmt.Errorf("exchange_rate is required for currency %s", currency)
		}
		exchangeRate, err = decimal.NewFromString(req.ExchangeRate)
		if err != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid exchange_rate: %w", err)
		}
		if !exchangeRate.IsPositive() {
			return ExpenseResponse{}, fmt.Errorf("exchange_rate must be positive")
		}
	}

	var vendorID *uuid.UUID
	if req.VendorID != "" {
		parsed, err := uuid.Parse(req.VendorID)
		if err != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid vendor_id: %w", err)
		}
		if _, err := s.partnerRepo.FindByID(ctx, tenantID, parsed); err != nil {
			return ExpenseResponse{}, fmt.Errorf("vendor not found: %w", err)
		}
		vendorID = &parsed
	}

	expense := model.Expense{
		TenantID:           tenantID,
		CompanyID:          companyID,
		VendorID:           vendorID,
		Currency:           currency,
		ExchangeRate:       exchangeRate,
		OriginalAmount:     amount,
		ConvertedAmountUSD: amount.Mul(exchangeRate),
		Category:           req.Category,
		Department:         req.Department,
		Status:             model.ExpenseStatusDraft,
		ReceiptURL:         req.ReceiptURL,
		Description:        req.Description,
		CreatedBy:          &userID,
	}
	if err := s.expenseRepo.Create(ctx, &expense); err != nil {
		return ExpenseResponse{}, fmt.Errorf("failed to create expense: %w", err)
	}

	actor := userID
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		TenantID: tenantID,
		UserID:   &actor,
		Action:   model.ActionCreateExpense,
		EntityID: expense.ID.String(),
	})
	return s.GetExpense(ctx, tenantID, expense.ID.String())
}

func (s *expenseService) SubmitExpense(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}

	expense, err := s.expenseRepo.FindByID(ctx, tenantID, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExpenseResponse{}, fmt.Errorf("%w: expense %s", ErrEntityNotFound, id)
		}
		return ExpenseResponse{}, err
	}
	if expense.Status != model.ExpenseStatusDraft {
		return ExpenseResponse{}, fmt.Errorf("%w: expense is %s", ErrInvalidTransition, expense.Status)
	}

	req, err := s.approvals.CreateApprovalRequest(ctx, CreateApprovalRequestInput{
		TenantID:    tenantID,
		CompanyID:   companyID,
		EntityType:  model.EntityTypeExpense,
		EntityID:    expense.ID,
		RequestedBy: userID,
		Metadata: model.JSONMap{
			"amount":     expense.ConvertedAmountUSD.String(),
			"currency":   expense.Currency,
			"category":   expense.Category,
			"department": expense.Department,
		},
	})
	if err != nil {
		return ExpenseResponse{}, err
	}

	switch {
	case req == nil:
		if err := s.HandleWorkflowOutcome(ctx, tenantID, expense.ID, OutcomeApproved); err != nil {
			return ExpenseResponse{}, err
		}
	case !model.IsTerminalRequestStatus(req.Status):
		if err := s.expenseRepo.UpdateStatus(ctx, expense.ID, model.ExpenseStatusPendingApproval); err != nil {
			return ExpenseResponse{}, err
		}
	}

	return s.GetExpense(ctx, tenantID, id)
}

func (s *expenseService) GetExpense(ctx context.Context, tenantID uuid.UUID, id string) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}
	expense, err := s.expenseRepo.FindByID(ctx, tenantID, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExpenseResponse{}, fmt.Errorf("%w: expense %s", ErrEntityNotFound, id)
		}
		return ExpenseResponse{}, err
	}
	return toExpenseResponse(*expense), nil
}

func (s *expenseService) ListExpenses(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]ExpenseResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	expenses, total, err := s.expenseRepo.List(ctx, tenantID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch expenses: %w", err)
	}

	result := make([]ExpenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		result = append(result, toExpenseResponse(expense))
	}
	return result, total, nil
}

func (s *expenseService) HandleWorkflowOutcome(ctx context.Context, tenantID, expenseID uuid.UUID, outcome string) error {
	switch outcome {
	case OutcomeApproved:
		return s.expenseRepo.UpdateStatus(ctx, expenseID, model.ExpenseStatusApproved)
	case OutcomeRejected:
		return s.expenseRepo.UpdateStatus(ctx, expenseID, model.ExpenseStatusRejected)
	default:
		return fmt.Errorf("unknown workflow outcome %q", outcome)
	}
}

// --- Mapping ---

func toExpenseResponse(expense model.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:                 expense.ID.String(),
		Currency:           expense.Currency,
		ExchangeRate:       expense.ExchangeRate.StringFixed(6),
		OriginalAmount:     expense.OriginalAmount.StringFixed(4),
		ConvertedAmountUSD: expense.ConvertedAmountUSD.StringFixed(4),
		Category:           expense.Category,
		Department:         expense.Department,
		Status:             expense.Status,
		ReceiptURL:         expense.ReceiptURL,
		Description:        expense.Description,
		CreatedAt:          expense.CreatedAt.Format(time.RFC3339),
	}
	if expense.VendorID != nil {
		id := expense.VendorID.String()
		resp.VendorID = &id
	}
	if expense.Vendor != nil {
		resp.VendorName = expense.Vendor.Name
	}
	return resp
}
