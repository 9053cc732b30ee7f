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

type CreateTaxRuleRequest struct {
	TaxType       string `json:"tax_type" binding:"required,oneof=VAT SALES WITHHOLDING"`
	Rate          string `json:"rate" binding:"required"`
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string `json:"effective_to"`                      // optional, open-ended when empty
	Description   string `json:"description"`
}

// --- Interface ---

// TaxService manages tax rules with temporal validity: rates apply from
// EffectiveFrom until EffectiveTo (open-ended when nil).
type TaxService interface {
	CreateTaxRule(ctx context.Context, tenantID, userID uuid.UUID, req CreateTaxRuleRequest) (*model.TaxRule, error)
	DeleteTaxRule(ctx context.Context, tenantID uuid.UUID, id string) error
	GetTaxRule(ctx context.Context, tenantID uuid.UUID, id string) (*model.TaxRule, error)
	ListTaxRules(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.TaxRule, int64, error)
	GetActiveRate(ctx context.Context, tenantID uuid.UUID, taxType string, at time.Time) (*model.TaxRule, error)
}

type taxService struct {
	taxRuleRepo repository.TaxRuleRepository
	auditRepo   repository.AuditRepository
}

func NewTaxService(taxRuleRepo repository.TaxRuleRepository, auditRepo repository.AuditRepository) TaxService {
	return &taxService{taxRuleRepo: taxRuleRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *taxService) CreateTaxRule(ctx context.Context, tenantID, userID uuid.UUID, req CreateTaxRuleRequest) (*model.TaxRule, error) {
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("rate must be between 0 and 1")
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid effective_from: %w", err)
	}

	var effectiveTo *time.Time
	if req.EffectiveTo != "" {
		parsed, err := time.Parse("2006-01-02", req.EffectiveTo)
		if err != nil {
			return nil, fmt.Errorf("invalid effective_to: %w", err)
		}
		if !parsed.After(effectiveFrom) {
			return nil, fmt.Errorf("effective_to must be after effective_from")
		}
		effectiveTo = &parsed
	}

	rule := model.TaxRule{
		TenantID:      tenantID,
		TaxType:       req.TaxType,
		Rate:          rate,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Description:   req.Description,
	}
	if err := s.taxRuleRepo.Create(ctx, &rule); err != nil {
		return nil, fmt.Errorf("failed to create tax rule: %w", err)
	}

	actor := userID
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		TenantID: tenantID,
		UserID:   &actor,
		Action:   model.ActionCreateTaxRule,
		EntityID: rule.ID.String(),
	})
	return &rule, nil
}

func (s *taxService) DeleteTaxRule(ctx context.Context, tenantID uuid.UUID, id string) error {
	rule, err := s.GetTaxRule(ctx, tenantID, id)
	if err != nil {
		return err
	}
	return s.taxRuleRepo.Delete(ctx, tenantID, rule.ID)
}

func (s *taxService) GetTaxRule(ctx context.Context, tenantID uuid.UUID, id string) (*model.TaxRule, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rule id: %w", err)
	}
	rule, err := s.taxRuleRepo.FindByID(ctx, tenantID, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tax rule %s", ErrEntityNotFound, id)
		}
		return nil, err
	}
	return rule, nil
}

func (s *taxService) ListTaxRules(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.TaxRule, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.taxRuleRepo.List(ctx, tenantID, page, limit)
}

func (s *taxService) GetActiveRate(ctx context.Context, tenantID uuid.UUID, taxType string, at time.Time) (*model.TaxRule, error) {
	rule, err := s.taxRuleRepo.FindActiveByType(ctx, tenantID, taxType, at)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active %s rule", ErrEntityNotFound, taxType)
		}
		return nil, err
	}
	return rule, nil
}
