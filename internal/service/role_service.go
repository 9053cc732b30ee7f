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

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

// --- Interface ---

type RoleService interface {
	CreateRole(ctx context.Context, tenantID uuid.UUID, req CreateRoleRequest) (*model.Role, error)
	DeleteRole(ctx context.Context, tenantID uuid.UUID, id string) error
	GetRole(ctx context.Context, tenantID uuid.UUID, id string) (*model.Role, error)
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	UpdatePermissions(ctx context.Context, tenantID uuid.UUID, id string, req UpdateRolePermissionsRequest) (*model.Role, error)
}

type roleService struct {
	roleRepo repository.RoleRepository
}

func NewRoleService(roleRepo repository.RoleRepository) RoleService {
	return &roleService{roleRepo: roleRepo}
}

// --- Implementation ---

func (s *roleService) CreateRole(ctx context.Context, tenantID uuid.UUID, req CreateRoleRequest) (*model.Role, error) {
	if _, err := s.roleRepo.FindByName(ctx, tenantID, req.Name); err == nil {
		return nil, fmt.Errorf("role %q already exists", req.Name)
	}

	role := model.Role{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.roleRepo.Create(ctx, &role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return &role, nil
}

func (s *roleService) DeleteRole(ctx context.Context, tenantID uuid.UUID, id string) error {
	role, err := s.GetRole(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("system role %q cannot be deleted", role.Name)
	}
	return s.roleRepo.Delete(ctx, role.ID)
}

func (s *roleService) GetRole(ctx context.Context, tenantID uuid.UUID, id string) (*model.Role, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}
	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: role %s", ErrEntityNotFound, id)
		}
		return nil, err
	}
	if role.TenantID != tenantID {
		return nil, fmt.Errorf("%w: role %s", ErrEntityNotFound, id)
	}
	return role, nil
}

func (s *roleService) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]model.Role, error) {
	return s.roleRepo.ListAll(ctx, tenantID)
}

func (s *roleService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return s.roleRepo.ListPermissions(ctx)
}

func (s *roleService) UpdatePermissions(ctx context.Context, tenantID uuid.UUID, id string, req UpdateRolePermissionsRequest) (*model.Role, error) {
	role, err := s.GetRole(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	permissionIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, raw := range req.PermissionIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid permission id %q: %w", raw, err)
		}
		permissionIDs = append(permissionIDs, parsed)
	}

	if err := s.roleRepo.UpdatePermissions(ctx, role.ID, permissionIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}
	return s.roleRepo.FindByIDWithPermissions(ctx, role.ID)
}
