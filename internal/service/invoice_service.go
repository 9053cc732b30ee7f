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

type InvoiceLineRequest struct {
	Description string `json:"description" binding:"required"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	AccountID   string `json:"account_id"`
}

type CreateInvoiceRequest struct {
	PartnerID string               `json:"partner_id"`
	TaxRuleID string               `json:"tax_rule_id"` // optional, overrides the active VAT rule
	DueDate   string               `json:"due_date"`    // YYYY-MM-DD
	Note      string               `json:"note"`
	Lines     []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type InvoiceLineResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    string  `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	Amount      string  `json:"amount"`
	AccountID   *string `json:"account_id,omitempty"`
}

type InvoiceResponse struct {
	ID          string                `json:"id"`
	InvoiceNo   string                `json:"invoice_no"`
	PartnerID   *string               `json:"partner_id,omitempty"`
	PartnerName string                `json:"partner_name,omitempty"`
	TaxRuleID   *string               `json:"tax_rule_id,omitempty"`
	TaxRate     *string               `json:"tax_rate,omitempty"`
	Subtotal    string                `json:"subtotal"`
	TaxAmount   string                `json:"tax_amount"`
	TotalAmount string                `json:"total_amount"`
	Status      string                `json:"status"`
	Lines       []InvoiceLineResponse `json:"lines,omitempty"`
	DueDate     *string               `json:"due_date,omitempty"`
	Note        string                `json:"note"`
	CreatedAt   string                `json:"created_at"`
}

// --- Interface ---

// InvoiceService manages customer/vendor invoices. Issuing an invoice is
// gated by the approval engine; a paid invoice must have been approved.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreateInvoiceRequest) (InvoiceResponse, error)
	SubmitInvoice(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (InvoiceResponse, error)
	MarkPaid(ctx context.Context, tenantID uuid.UUID, id string) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, tenantID uuid.UUID, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]InvoiceResponse, int64, error)
	HandleWorkflowOutcome(ctx context.Context, tenantID, invoiceID uuid.UUID, outcome string) error
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	partnerRepo repository.PartnerRepository
	taxRuleRepo repository.TaxRuleRepository
	approvals   ApprovalService
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	partnerRepo repository.PartnerRepository,
	taxRuleRepo repository.TaxRuleRepository,
	approvals ApprovalService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		partnerRepo: partnerRepo,
		taxRuleRepo: taxRuleRepo,
		approvals:   approvals,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreateInvoiceRequest) (InvoiceResponse, error) {
	var partnerID *uuid.UUID
	if req.PartnerID != "" {
		parsed, err := uuid.Parse(req.PartnerID)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("invalid partner_id: %w", err)
		}
		if _, err := s.partnerRepo.FindByID(ctx, tenantID, parsed); err != nil {
			return InvoiceResponse{}, fmt.Errorf("partner not found: %w", err)
		}
		partnerID = &parsed
	}

	subtotal := decimal.Zero
	lines := make([]model.InvoiceLine, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		quantity := decimal.NewFromInt(1)
		if lineReq.Quantity != "" {
			parsed, err := decimal.NewFromString(lineReq.Quantity)
			if err != nil {
				return InvoiceResponse{}, fmt.Errorf("line %d: invalid quantity: %w", i, err)
			}
			quantity = parsed
		}
		unitPrice, err := decimal.NewFromString(lineReq.UnitPrice)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("line %d: invalid unit_price: %w", i, err)
		}
		if quantity.IsNegative() || unitPrice.IsNegative() {
			return InvoiceResponse{}, fmt.Errorf("line %d: quantity and unit_price must not be negative", i)
		}

		line := model.InvoiceLine{
			Description: lineReq.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Amount:      quantity.Mul(unitPrice),
		}
		if lineReq.AccountID != "" {
			accountID, err := uuid.Parse(lineReq.AccountID)
			if err != nil {
				return InvoiceResponse{}, fmt.Errorf("line %d: invalid account_id: %w", i, err)
			}
			line.AccountID = &accountID
		}
		subtotal = subtotal.Add(line.Amount)
		lines = append(lines, line)
	}

	// Tax: explicit rule wins, otherwise the VAT rule active today.
	taxAmount := decimal.Zero
	var taxRuleID *uuid.UUID
	if req.TaxRuleID != "" {
		parsed, err := uuid.Parse(req.TaxRuleID)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("invalid tax_rule_id: %w", err)
		}
		rule, err := s.taxRuleRepo.FindByID(ctx, tenantID, parsed)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("tax rule not found: %w", err)
		}
		taxRuleID = &rule.ID
		taxAmount = subtotal.Mul(rule.Rate)
	} else {
		rule, err := s.taxRuleRepo.FindActiveByType(ctx, tenantID, model.TaxTypeVAT, time.Now())
		if err == nil {
			taxRuleID = &rule.ID
			taxAmount = subtotal.Mul(rule.Rate)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, err
		}
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("invalid due_date: %w", err)
		}
		dueDate = &parsed
	}

	var invoice model.Invoice
	// Number generation and insert share one transaction so the advisory
	// lock taken while counting holds until the new invoice is visible.
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceNo, err := s.generateInvoiceNo(txCtx)
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}

		invoice = model.Invoice{
			TenantID:    tenantID,
			CompanyID:   companyID,
			InvoiceNo:   invoiceNo,
			PartnerID:   partnerID,
			TaxRuleID:   taxRuleID,
			Subtotal:    subtotal,
			TaxAmount:   taxAmount,
			TotalAmount: subtotal.Add(taxAmount),
			Status:      model.InvoiceStatusDraft,
			Lines:       lines,
			DueDate:     dueDate,
			CreatedBy:   &userID,
			Note:        req.Note,
		}
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.logAudit(ctx, tenantID, userID, model.ActionCreateInvoice, invoice.ID.String(), invoice.InvoiceNo)
	return s.GetInvoice(ctx, tenantID, invoice.ID.String())
}

func (s *invoiceService) SubmitInvoice(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, fmt.Errorf("%w: invoice %s", ErrEntityNotFound, id)
		}
		return InvoiceResponse{}, err
	}
	if invoice.Status != model.InvoiceStatusDraft {
		return InvoiceResponse{}, fmt.Errorf("%w: invoice is %s", ErrInvalidTransition, invoice.Status)
	}

	metadata := model.JSONMap{
		"amount":     invoice.TotalAmount.String(),
		"invoice_no": invoice.InvoiceNo,
	}
	if invoice.PartnerID != nil {
		if partner, err := s.partnerRepo.FindByID(ctx, tenantID, *invoice.PartnerID); err == nil {
			metadata["partner"] = map[string]interface{}{
				"name":    partner.Name,
				"type":    partner.Type,
				"country": partner.Country,
			}
		}
	}

	req, err := s.approvals.CreateApprovalRequest(ctx, CreateApprovalRequestInput{
		TenantID:    tenantID,
		CompanyID:   companyID,
		EntityType:  model.EntityTypeInvoice,
		EntityID:    invoice.ID,
		RequestedBy: userID,
		Metadata:    metadata,
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	switch {
	case req == nil:
		if err := s.HandleWorkflowOutcome(ctx, tenantID, invoice.ID, OutcomeApproved); err != nil {
			return InvoiceResponse{}, err
		}
	case !model.IsTerminalRequestStatus(req.Status):
		if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, model.InvoiceStatusPendingApproval); err != nil {
			return InvoiceResponse{}, err
		}
	}

	return s.GetInvoice(ctx, tenantID, id)
}

func (s *invoiceService) MarkPaid(ctx context.Context, tenantID uuid.UUID, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, fmt.Errorf("%w: invoice %s", ErrEntityNotFound, id)
		}
		return InvoiceResponse{}, err
	}
	if invoice.Status != model.InvoiceStatusApproved {
		return InvoiceResponse{}, fmt.Errorf("%w: only approved invoices can be paid, invoice is %s", ErrInvalidTransition, invoice.Status)
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, model.InvoiceStatusPaid); err != nil {
		return InvoiceResponse{}, err
	}
	return s.GetInvoice(ctx, tenantID, id)
}

func (s *invoiceService) GetInvoice(ctx context.Context, tenantID uuid.UUID, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.invoiceRepo.FindByIDWithLines(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, fmt.Errorf("%w: invoice %s", ErrEntityNotFound, id)
		}
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]InvoiceResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	invoices, total, err := s.invoiceRepo.List(ctx, tenantID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for _, invoice := range invoices {
		result = append(result, toInvoiceResponse(invoice))
	}
	return result, total, nil
}

func (s *invoiceService) HandleWorkflowOutcome(ctx context.Context, tenantID, invoiceID uuid.UUID, outcome string) error {
	switch outcome {
	case OutcomeApproved:
		return s.invoiceRepo.UpdateStatus(ctx, invoiceID, model.InvoiceStatusApproved)
	case OutcomeRejected:
		return s.invoiceRepo.UpdateStatus(ctx, invoiceID, model.InvoiceStatusRejected)
	default:
		return fmt.Errorf("unknown workflow outcome %q", outcome)
	}
}

func (s *invoiceService) generateInvoiceNo(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "INV-" + today + "-"

	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *invoiceService) logAudit(ctx context.Context, tenantID, userID uuid.UUID, action, entityID, entityName string) {
	actor := userID
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		TenantID:   tenantID,
		UserID:     &actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	})
}

// --- Mapping ---

func toInvoiceResponse(invoice model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:          invoice.ID.String(),
		InvoiceNo:   invoice.InvoiceNo,
		Subtotal:    invoice.Subtotal.StringFixed(4),
		TaxAmount:   invoice.TaxAmount.StringFixed(4),
		TotalAmount: invoice.TotalAmount.StringFixed(4),
		Status:      invoice.Status,
		Note:        invoice.Note,
		CreatedAt:   invoice.CreatedAt.Format(time.RFC3339),
	}
	if invoice.PartnerID != nil {
		id := invoice.PartnerID.String()
		resp.PartnerID = &id
	}
	if invoice.Partner != nil {
		resp.PartnerName = invoice.Partner.Name
	}
	if invoice.TaxRuleID != nil {
		id := invoice.TaxRuleID.String()
		resp.TaxRuleID = &id
	}
	if invoice.TaxRule != nil {
		rate := invoice.TaxRule.Rate.StringFixed(4)
		resp.TaxRate = &rate
	}
	if invoice.DueDate != nil {
		due := invoice.DueDate.Format("2006-01-02")
		resp.DueDate = &due
	}
	for _, line := range invoice.Lines {
		lineResp := InvoiceLineResponse{
			ID:          line.ID.String(),
			Description: line.Description,
			Quantity:    line.Quantity.StringFixed(4),
			UnitPrice:   line.UnitPrice.StringFixed(4),
			Amount:      line.Amount.StringFixed(4),
		}
		if line.AccountID != nil {
			id := line.AccountID.String()
			lineResp.AccountID = &id
		}
		resp.Lines = append(resp.Lines, lineResp)
	}
	return resp
}
