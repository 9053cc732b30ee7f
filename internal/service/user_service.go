package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Username         string `json:"username" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Phone            string `json:"phone"`
	Password         string `json:"password" binding:"required,min=8"`
	Role             string `json:"role" binding:"required"`
	Department       string `json:"department"`
	IsDepartmentHead bool   `json:"is_department_head"`
}

type UpdateUserRequest struct {
	Username         *string `json:"username"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Phone            *string `json:"phone"`
	Role             *string `json:"role"`
	Department       *string `json:"department"`
	IsDepartmentHead *bool   `json:"is_department_head"`
	IsActive         *bool   `json:"is_active"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Role             string `json:"role"`
	Department       string `json:"department"`
	IsDepartmentHead bool   `json:"is_department_head"`
	IsActive         bool   `json:"is_active"`
	CreatedAt        string `json:"created_at"`
}

// --- Interface ---

// UserService manages tenant members and authentication. Access tokens
// carry the tenant and company claims every scoped endpoint relies on.
type UserService interface {
	CreateUser(ctx context.Context, tenantID, companyID uuid.UUID, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, tenantID uuid.UUID, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, tenantID uuid.UUID, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, tenantID uuid.UUID, id string) error
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{userRepo: userRepo, roleRepo: roleRepo}
}

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// --- Implementation ---

func (s *userService) CreateUser(ctx context.Context, tenantID, companyID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.roleRepo.FindByName(ctx, tenantID, req.Role); err != nil {
		return nil, fmt.Errorf("role %q does not exist", req.Role)
	}
	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		TenantID:         tenantID,
		CompanyID:        companyID,
		Username:         req.Username,
		Email:            req.Email,
		Phone:            req.Phone,
		Password:         string(hashedPassword),
		Role:             req.Role,
		Department:       req.Department,
		IsDepartmentHead: req.IsDepartmentHead,
		IsActive:         true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return mapToUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}
	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error) {
	stored, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.userRepo.DeleteRefreshToken(ctx, refreshToken)
		return nil, errors.New("refresh token expired")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		return nil, errors.New("invalid refresh token")
	}

	// Rotate: the old token is single-use.
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) GetUserByID(ctx context.Context, tenantID uuid.UUID, id string) (*UserResponse, error) {
	user, err := s.findTenantUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return mapToUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.userRepo.List(ctx, tenantID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToUserResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, tenantID uuid.UUID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.findTenantUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if _, err := s.roleRepo.FindByName(ctx, tenantID, *req.Role); err != nil {
			return nil, fmt.Errorf("role %q does not exist", *req.Role)
		}
		user.Role = *req.Role
	}
	if req.Username != nil && *req.Username != user.Username {
		if _, err := s.userRepo.GetByUsername(ctx, *req.Username); err == nil {
			return nil, errors.New("username already exists")
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.userRepo.GetByEmail(ctx, *req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.IsDepartmentHead != nil {
		user.IsDepartmentHead = *req.IsDepartmentHead
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return mapToUserResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, tenantID uuid.UUID, id string) error {
	user, err := s.findTenantUser(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.DeleteRefreshTokensByUser(ctx, user.ID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, user.ID)
}

// --- Helpers ---

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenPairResponse, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user.ID.String(),
		"tenant_id":  user.TenantID.String(),
		"company_id": user.CompanyID.String(),
		"role":       user.Role,
		"iat":        now.Unix(),
		"exp":        now.Add(accessTokenTTL).Unix(),
	})

	accessToken, err := token.SignedString(jwtSecret())
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	refreshToken, err := randomToken()
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(refreshTokenTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *userService) findTenantUser(ctx context.Context, tenantID uuid.UUID, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrEntityNotFound, id)
		}
		return nil, err
	}
	if user.TenantID != tenantID {
		return nil, fmt.Errorf("%w: user %s", ErrEntityNotFound, id)
	}
	return user, nil
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key" // development fallback
	}
	return []byte(secret)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.New("failed to generate refresh token")
	}
	return hex.EncodeToString(buf), nil
}

func mapToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:               user.ID.String(),
		Username:         user.Username,
		Email:            user.Email,
		Phone:            user.Phone,
		Role:             user.Role,
		Department:       user.Department,
		IsDepartmentHead: user.IsDepartmentHead,
		IsActive:         user.IsActive,
		CreatedAt:        user.CreatedAt.Format(time.RFC3339),
	}
}
