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

type JournalLineRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description"`
}

type CreateJournalEntryRequest struct {
	EntryDate   string               `json:"entry_date" binding:"required"` // YYYY-MM-DD
	Description string               `json:"description"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

type JournalLineResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	AccountCode string `json:"account_code,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description"`
}

type JournalEntryResponse struct {
	ID          string                `json:"id"`
	EntryNo     string                `json:"entry_no"`
	EntryDate   string                `json:"entry_date"`
	Description string                `json:"description"`
	Status      string                `json:"status"`
	TotalDebit  string                `json:"total_debit"`
	TotalCredit string                `json:"total_credit"`
	Lines       []JournalLineResponse `json:"lines,omitempty"`
	PostedAt    *string               `json:"posted_at,omitempty"`
	CreatedAt   string                `json:"created_at"`
}

// --- Interface ---

// JournalService manages double-entry journal entries. Posting is gated by
// the approval engine: Submit starts a workflow and the entry only reaches
// POSTED through the workflow outcome callback.
type JournalService interface {
	CreateEntry(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreateJournalEntryRequest) (JournalEntryResponse, error)
	SubmitEntry(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (JournalEntryResponse, error)
	GetEntry(ctx context.Context, tenantID uuid.UUID, id string) (JournalEntryResponse, error)
	ListEntries(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]JournalEntryResponse, int64, error)
	HandleWorkflowOutcome(ctx context.Context, tenantID, entryID uuid.UUID, outcome string) error
}

type journalService struct {
	journalRepo repository.JournalRepository
	accountRepo repository.AccountRepository
	approvals   ApprovalService
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewJournalService(
	journalRepo repository.JournalRepository,
	accountRepo repository.AccountRepository,
	approvals ApprovalService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) JournalService {
	return &journalService{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		approvals:   approvals,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *journalService) CreateEntry(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreateJournalEntryRequest) (JournalEntryResponse, error) {
	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return JournalEntryResponse{}, fmt.Errorf("invalid entry_date: %w", err)
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	lines := make([]model.JournalLine, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		accountID, err := uuid.Parse(lineReq.AccountID)
		if err != nil {
			return JournalEntryResponse{}, fmt.Errorf("line %d: invalid account_id: %w", i, err)
		}
		account, err := s.accountRepo.FindByID(ctx, tenantID, accountID)
		if err != nil {
			return JournalEntryResponse{}, fmt.Errorf("line %d: account not found", i)
		}
		if !account.IsActive {
			return JournalEntryResponse{}, fmt.Errorf("line %d: account %s is inactive", i, account.Code)
		}

		debit, err := parseAmountOrZero(lineReq.Debit)
		if err != nil {
			return JournalEntryResponse{}, fmt.Errorf("line %d: invalid debit: %w", i, err)
		}
		credit, err := parseAmountOrZero(lineReq.Credit)
		if err != nil {
			return JournalEntryResponse{}, fmt.Errorf("line %d: invalid credit: %w", i, err)
		}
		if debit.IsNegative() || credit.IsNegative() {
			return JournalEntryResponse{}, fmt.Errorf("line %d: amounts must not be negative", i)
		}
		if debit.IsPositive() == credit.IsPositive() {
			return JournalEntryResponse{}, fmt.Errorf("line %d: exactly one of debit or credit must be set", i)
		}

		totalDebit = totalDebit.Add(debit)
		totalCredit = totalCredit.Add(credit)
		lines = append(lines, model.JournalLine{
			AccountID:   accountID,
			Debit:       debit,
			Credit:      credit,
			Description: lineReq.Description,
		})
	}

	if !totalDebit.Equal(totalCredit) {
		return JournalEntryResponse{}, fmt.Errorf("journal entry is not balanced: debit %s != credit %s",
			totalDebit.String(), totalCredit.String())
	}

	var entry model.JournalEntry
	// Number generation and insert share one transaction so the advisory
	// lock taken while counting holds until the new entry is visible.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entryNo, err := s.generateEntryNo(txCtx)
		if err != nil {
			return fmt.Errorf("failed to generate entry number: %w", err)
		}

		entry = model.JournalEntry{
			TenantID:    tenantID,
			CompanyID:   companyID,
			EntryNo:     entryNo,
			EntryDate:   entryDate,
			Description: req.Description,
			Status:      model.JournalStatusDraft,
			TotalDebit:  totalDebit,
			TotalCredit: totalCredit,
			Lines:       lines,
			CreatedBy:   &userID,
		}
		if err := s.journalRepo.Create(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to create journal entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return JournalEntryResponse{}, err
	}

	s.logAudit(ctx, tenantID, userID, model.ActionCreateJournalEntry, entry.ID.String(), entry.EntryNo)
	return toJournalEntryResponse(entry), nil
}

// SubmitEntry sends a DRAFT entry through the approval workflow. When no
// workflow applies the entry posts immediately.
func (s *journalService) SubmitEntry(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (JournalEntryResponse, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return JournalEntryResponse{}, fmt.Errorf("invalid journal entry id: %w", err)
	}

	entry, err := s.journalRepo.FindByID(ctx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JournalEntryResponse{}, fmt.Errorf("%w: journal entry %s", ErrEntityNotFound, id)
		}
		return JournalEntryResponse{}, err
	}
	if entry.Status != model.JournalStatusDraft {
		return JournalEntryResponse{}, fmt.Errorf("%w: journal entry is %s", ErrInvalidTransition, entry.Status)
	}

	req, err := s.approvals.CreateApprovalRequest(ctx, CreateApprovalRequestInput{
		TenantID:    tenantID,
		CompanyID:   companyID,
		EntityType:  model.EntityTypeJournalEntry,
		EntityID:    entry.ID,
		RequestedBy: userID,
		Metadata: model.JSONMap{
			"amount":      entry.TotalDebit.String(),
			"description": entry.Description,
			"entry_no":    entry.EntryNo,
		},
	})
	if err != nil {
		return JournalEntryResponse{}, err
	}

	switch {
	case req == nil:
		// No workflow configured for journal entries: post directly.
		if err := s.HandleWorkflowOutcome(ctx, tenantID, entry.ID, OutcomeApproved); err != nil {
			return JournalEntryResponse{}, err
		}
	case !model.IsTerminalRequestStatus(req.Status):
		if err := s.journalRepo.UpdateStatus(ctx, entry.ID, model.JournalStatusPendingApproval); err != nil {
			return JournalEntryResponse{}, err
		}
	}

	return s.GetEntry(ctx, tenantID, id)
}

func (s *journalService) GetEntry(ctx context.Context, tenantID uuid.UUID, id string) (JournalEntryResponse, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return JournalEntryResponse{}, fmt.Errorf("invalid journal entry id: %w", err)
	}
	entry, err := s.journalRepo.FindByIDWithLines(ctx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JournalEntryResponse{}, fmt.Errorf("%w: journal entry %s", ErrEntityNotFound, id)
		}
		return JournalEntryResponse{}, err
	}
	return toJournalEntryResponse(*entry), nil
}

func (s *journalService) ListEntries(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]JournalEntryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	entries, total, err := s.journalRepo.List(ctx, tenantID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch journal entries: %w", err)
	}

	result := make([]JournalEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toJournalEntryResponse(entry))
	}
	return result, total, nil
}

// HandleWorkflowOutcome is the approval engine's callback: it flips the
// entry to POSTED or REJECTED once its workflow resolves.
func (s *journalService) HandleWorkflowOutcome(ctx context.Context, tenantID, entryID uuid.UUID, outcome string) error {
	entry, err := s.journalRepo.FindByID(ctx, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("journal entry not found: %w", err)
	}

	switch outcome {
	case OutcomeApproved:
		now := time.Now()
		entry.Status = model.JournalStatusPosted
		entry.PostedAt = &now
		if err := s.journalRepo.Update(ctx, entry); err != nil {
			return err
		}
		s.logAudit(ctx, tenantID, uuid.Nil, model.ActionPostJournalEntry, entry.ID.String(), entry.EntryNo)
		return nil
	case OutcomeRejected:
		return s.journalRepo.UpdateStatus(ctx, entryID, model.JournalStatusRejected)
	default:
		return fmt.Errorf("unknown workflow outcome %q", outcome)
	}
}

func (s *journalService) generateEntryNo(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "JE-" + today + "-"

	count, err := s.journalRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *journalService) logAudit(ctx context.Context, tenantID, userID uuid.UUID, action, entityID, entityName string) {
	entry := &model.AuditLog{
		TenantID:   tenantID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if userID != uuid.Nil {
		actor := userID
		entry.UserID = &actor
	}
	_ = s.auditRepo.Log(ctx, entry)
}

// --- Helpers ---

func parseAmountOrZero(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// --- Mapping ---

func toJournalEntryResponse(entry model.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:          entry.ID.String(),
		EntryNo:     entry.EntryNo,
		EntryDate:   entry.EntryDate.Format("2006-01-02"),
		Description: entry.Description,
		Status:      entry.Status,
		TotalDebit:  entry.TotalDebit.StringFixed(4),
		TotalCredit: entry.TotalCredit.StringFixed(4),
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.PostedAt != nil {
		posted := entry.PostedAt.Format(time.RFC3339)
		resp.PostedAt = &posted
	}
	for _, line := range entry.Lines {
		lineResp := JournalLineResponse{
			ID:          line.ID.String(),
			AccountID:   line.AccountID.String(),
			Debit:       line.Debit.StringFixed(4),
			Credit:      line.Credit.StringFixed(4),
			Description: line.Description,
		}
		if line.Account != nil {
			lineResp.AccountCode = line.Account.Code
		}
		resp.Lines = append(resp.Lines, lineResp)
	}
	return resp
}
