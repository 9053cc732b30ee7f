package repository

import (
	"context"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Account, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*model.Account, error)
	List(ctx context.Context, tenantID uuid.UUID, accountType string, page, limit int) ([]model.Account, int64, error)
	HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return GetDB(ctx, r.db).Create(account).Error
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	return GetDB(ctx, r.db).Save(account).Error
}

func (r *accountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.Account{}).Error
}

func (r *accountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context, tenantID uuid.UUID, accountType string, page, limit int) ([]model.Account, int64, error) {
	var accounts []model.Account
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Account{}).Where("tenant_id = ?", tenantID)
	if accountType != "" {
		query = query.Where("type = ?", accountType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Where("tenant_id = ?", tenantID)
	if accountType != "" {
		fetchQuery = fetchQuery.Where("type = ?", accountType)
	}
	if err := fetchQuery.Order("code asc").Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *accountRepository) HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Account{}).
		Where("tenant_id = ? AND parent_id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
