package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a tenant member. Role and Department feed the approval
// engine's approver resolution.
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_tenant_company" json:"tenant_id"`
	CompanyID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_tenant_company" json:"company_id"`
	Username         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone            string         `gorm:"type:varchar(20)" json:"phone"`
	Password         string         `gorm:"type:varchar(255);not null" json:"-"`         // Omit password from JSON requests/responses
	Role             string         `gorm:"type:varchar(50);not null;index" json:"role"` // admin, manager, accountant, cfo, staff...
	Department       string         `gorm:"type:varchar(100);index" json:"department"`
	IsDepartmentHead bool           `gorm:"default:false" json:"is_department_head"`
	IsActive         bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
