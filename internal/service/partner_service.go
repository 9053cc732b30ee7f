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

type CreatePartnerRequest struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"required,oneof=CUSTOMER VENDOR BOTH"`
	TaxCode       string `json:"tax_code"`
	Country       string `json:"country"`
	BankAccount   string `json:"bank_account"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
}

type UpdatePartnerRequest struct {
	Name          *string `json:"name"`
	Type          *string `json:"type" binding:"omitempty,oneof=CUSTOMER VENDOR BOTH"`
	TaxCode       *string `json:"tax_code"`
	Country       *string `json:"country"`
	BankAccount   *string `json:"bank_account"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Address       *string `json:"address"`
	IsActive      *bool   `json:"is_active"`
}

// --- Interface ---

type PartnerService interface {
	CreatePartner(ctx context.Context, tenantID uuid.UUID, req CreatePartnerRequest) (*model.Partner, error)
	UpdatePartner(ctx context.Context, tenantID uuid.UUID, id string, req UpdatePartnerRequest) (*model.Partner, error)
	DeletePartner(ctx context.Context, tenantID uuid.UUID, id string) error
	GetPartner(ctx context.Context, tenantID uuid.UUID, id string) (*model.Partner, error)
	ListPartners(ctx context.Context, tenantID uuid.UUID, partnerType, search string, page, limit int) ([]model.Partner, int64, error)
}

type partnerService struct {
	partnerRepo repository.PartnerRepository
}

func NewPartnerService(partnerRepo repository.PartnerRepository) PartnerService {
	return &partnerService{partnerRepo: partnerRepo}
}

// --- Implementation ---

func (s *partnerService) CreatePartner(ctx context.Context, tenantID uuid.UUID, req CreatePartnerRequest) (*model.Partner, error) {
	partner := model.Partner{
		TenantID:      tenantID,
		Name:          req.Name,
		Type:          req.Type,
		TaxCode:       req.TaxCode,
		Country:       req.Country,
		BankAccount:   req.BankAccount,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	if err := s.partnerRepo.Create(ctx, &partner); err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}
	return &partner, nil
}

func (s *partnerService) UpdatePartner(ctx context.Context, tenantID uuid.UUID, id string, req UpdatePartnerRequest) (*model.Partner, error) {
	partner, err := s.GetPartner(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		partner.Name = *req.Name
	}
	if req.Type != nil {
		partner.Type = *req.Type
	}
	if req.TaxCode != nil {
		partner.TaxCode = *req.TaxCode
	}
	if req.Country != nil {
		partner.Country = *req.Country
	}
	if req.BankAccount != nil {
		partner.BankAccount = *req.BankAccount
	}
	if req.ContactPerson != nil {
		partner.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		partner.Phone = *req.Phone
	}
	if req.Email != nil {
		partner.Email = *req.Email
	}
	if req.Address != nil {
		partner.Address = *req.Address
	}
	if req.IsActive != nil {
		partner.IsActive = *req.IsActive
	}

	if err := s.partnerRepo.Update(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to update partner: %w", err)
	}
	return partner, nil
}

func (s *partnerService) DeletePartner(ctx context.Context, tenantID uuid.UUID, id string) error {
	partner, err := s.GetPartner(ctx, tenantID, id)
	if err != nil {
		return err
	}
	return s.partnerRepo.Delete(ctx, tenantID, partner.ID)
}

func (s *partnerService) GetPartner(ctx context.Context, tenantID uuid.UUID, id string) (*model.Partner, error) {
	partnerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid partner id: %w", err)
	}
	partner, err := s.partnerRepo.FindByID(ctx, tenantID, partnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: partner %s", ErrEntityNotFound, id)
		}
		return nil, err
	}
	return partner, nil
}

func (s *partnerService) ListPartners(ctx context.Context, tenantID uuid.UUID, partnerType, search string, page, limit int) ([]model.Partner, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.partnerRepo.List(ctx, tenantID, partnerType, search, page, limit)
}
