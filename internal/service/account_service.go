package service

import (
	"context"
	"errors"
	"fmt"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID    string `json:"parent_id"`
	Description string `json:"description"`
}

type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// --- Interface ---

// AccountService manages the tenant's chart of accounts. Codes are unique
// per tenant; a parent account must share the child's type.
type AccountService interface {
	CreateAccount(ctx context.Context, tenantID, userID uuid.UUID, req CreateAccountRequest) (*model.Account, error)
	UpdateAccount(ctx context.Context, tenantID, userID uuid.UUID, id string, req UpdateAccountRequest) (*model.Account, error)
	DeleteAccount(ctx context.Context, tenantID, userID uuid.UUID, id string) error
	GetAccount(ctx context.Context, tenantID uuid.UUID, id string) (*model.Account, error)
	ListAccounts(ctx context.Context, tenantID uuid.UUID, accountType string, page, limit int) ([]model.Account, int64, error)
}

type accountService struct {
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditRepository
}

func NewAccountService(accountRepo repository.AccountRepository, auditRepo repository.AuditRepository) AccountService {
	return &accountService{accountRepo: accountRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *accountService) CreateAccount(ctx context.Context, tenantID, userID uuid.UUID, req CreateAccountRequest) (*model.Account, error) {
	if _, err := s.accountRepo.FindByCode(ctx, tenantID, req.Code); err == nil {
		return nil, fmt.Errorf("account code %s already exists", req.Code)
	}

	account := model.Account{
		TenantID:    tenantID,
		Code:        req.Code,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		IsActive:    true,
	}

	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent_id: %w", err)
		}
		parent, err := s.accountRepo.FindByID(ctx, tenantID, parentID)
		if err != nil {
			return nil, fmt.Errorf("parent account not found: %w", err)
		}
		if parent.Type != req.Type {
			return nil, fmt.Errorf("parent account %s has type %s, child must match", parent.Code, parent.Type)
		}
		account.ParentID = &parentID
	}

	if err := s.accountRepo.Create(ctx, &account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logAudit(ctx, tenantID, userID, model.ActionCreateAccount, account.ID.String(), account.Code+" "+account.Name)
	return &account, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, tenantID, userID uuid.UUID, id string, req UpdateAccountRequest) (*model.Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}
	account, err := s.accountRepo.FindByID(ctx, tenantID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrEntityNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	s.logAudit(ctx, tenantID, userID, model.ActionUpdateAccount, account.ID.String(), account.Code+" "+account.Name)
	return account, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, tenantID, userID uuid.UUID, id string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	account, err := s.accountRepo.FindByID(ctx, tenantID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %s", ErrEntityNotFound, id)
		}
		return err
	}

	hasChildren, err := s.accountRepo.HasChildren(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if hasChildren {
		return fmt.Errorf("account %s has child accounts and cannot be deleted", account.Code)
	}

	if err := s.accountRepo.Delete(ctx, tenantID, accountID); err != nil {
		return err
	}
	s.logAudit(ctx, tenantID, userID, model.ActionDeleteAccount, account.ID.String(), account.Code+" "+account.Name)
	return nil
}

func (s *accountService) GetAccount(ctx context.Context, tenantID uuid.UUID, id string) (*model.Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}
	account, err := s.accountRepo.FindByID(ctx, tenantID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrEntityNotFound, id)
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, tenantID uuid.UUID, accountType string, page, limit int) ([]model.Account, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.accountRepo.List(ctx, tenantID, accountType, page, limit)
}

func (s *accountService) logAudit(ctx context.Context, tenantID, userID uuid.UUID, action, entityID, entityName string) {
	actor := userID
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		TenantID:   tenantID,
		UserID:     &actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	})
}
