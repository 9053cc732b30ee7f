package repository

import (
	"context"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JournalRepository interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.JournalEntry, error)
	FindByIDWithLines(ctx context.Context, tenantID, id uuid.UUID) (*model.JournalEntry, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.JournalEntry, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Update(ctx context.Context, entry *model.JournalEntry) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type journalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *journalRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepository) FindByIDWithLines(ctx context.Context, tenantID, id uuid.UUID) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Lines.Account").
		Preload("Creator").
		First(&entry, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepository) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.JournalEntry, int64, error) {
	var entries []model.JournalEntry
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.JournalEntry{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Lines").Where("tenant_id = ?", tenantID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("entry_date desc, created_at desc").
		Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *journalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.JournalEntry{}).Where("id = ?", id).Update("status", status).Error
}

func (r *journalRepository) Update(ctx context.Context, entry *model.JournalEntry) error {
	return GetDB(ctx, r.db).Save(entry).Error
}

// CountByPrefix counts entries sharing a number prefix. The advisory lock
// serializes concurrent number generation for the same prefix until the
// surrounding transaction commits.
func (r *journalRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&model.JournalEntry{}).
		Where("entry_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
