package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
)

type accountRepository interface {
	uniqueUserChecker
	CreateAdmin(ctx context.Context, user *models.User) (*models.Admin, error)
	SetPasswordHash(ctx context.Context, username, hash string) error
}

// AccountService backs the operator commands that bootstrap and recover accounts.
type AccountService struct {
	repo      accountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo accountRepository, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AccountService{repo: repo, validator: validate, logger: logger}
}

// CreateAdmin creates a user with an admin row and a fresh API key.
func (s *AccountService) CreateAdmin(ctx context.Context, req dto.CreateAdminRequest) (*models.Admin, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid admin")
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username, 0)
	if err != nil {
		return nil, writeError(err, "failed to check username")
	}
	if exists {
		return nil, badRequest("username already taken")
	}
	var email *string
	if req.Email != "" {
		exists, err = s.repo.ExistsByEmail(ctx, req.Email, 0)
		if err != nil {
			return nil, writeError(err, "failed to check email")
		}
		if exists {
			return nil, badRequest("email already taken")
		}
		email = ptr(req.Email)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		APIKey:       &apiKey,
	}
	admin, err := s.repo.CreateAdmin(ctx, user)
	if err != nil {
		return nil, writeError(err, "failed to create admin")
	}
	s.logger.Info("admin created", zap.String("username", user.Username), zap.Int64("admin_id", admin.AdminID))
	return admin, nil
}

// ResetPassword replaces the password of username.
func (s *AccountService) ResetPassword(ctx context.Context, username, password string) error {
	if len(password) < 6 {
		return badRequest("password must be at least 6 characters")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, username, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("user not found")
		}
		return writeError(err, "failed to reset password")
	}
	s.logger.Info("password reset", zap.String("username", username))
	return nil
}
