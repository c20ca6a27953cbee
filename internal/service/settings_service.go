package service

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type settingsUserRepository interface {
	uniqueUserChecker
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	SetAPIKey(ctx context.Context, id int64, apiKey string) error
}

type pictureStore interface {
	pictureRemover
	Path(filename string) string
}

// SettingsService lets any authenticated user manage their own profile.
type SettingsService struct {
	users     settingsUserRepository
	pictures  pictureStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(users settingsUserRepository, pictures pictureStore, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{users: users, pictures: pictures, validator: registerValidations(validate), logger: logger}
}

// Get returns the caller's profile.
func (s *SettingsService) Get(ctx context.Context, p *models.Principal) (*dto.Settings, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return &dto.Settings{User: *user, Role: p.Role}, nil
}

// Patch updates the caller's own user fields.
func (s *SettingsService) Patch(ctx context.Context, p *models.Principal, patch dto.UserPatch) (*dto.UpdateResult, error) {
	if patch.Empty() {
		return nil, appErrors.ErrNoFieldsToUpdate
	}
	if err := s.validator.Struct(patch); err != nil {
		return nil, invalid(err, "invalid settings payload")
	}
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	fields, updated, err := userColumns(ctx, s.users, p.UserID, patch)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, p.UserID, fields); err != nil {
		return nil, writeError(err, "failed to update settings")
	}

	replacePicture(s.pictures, user.ProfilePicture, patch.ProfilePicture, s.logger, p.UserID)
	s.logger.Info("settings updated", zap.Int64("user_id", p.UserID), zap.Strings("fields", updated))
	return &dto.UpdateResult{Message: "settings updated", ID: p.UserID, UpdatedFields: updated}, nil
}

// RotateAPIKey replaces the caller's API key.
func (s *SettingsService) RotateAPIKey(ctx context.Context, p *models.Principal) (*dto.APIKeyResponse, error) {
	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, err
	}
	if err := s.users.SetAPIKey(ctx, p.UserID, apiKey); err != nil {
		return nil, lookupError(err, "user")
	}
	s.logger.Info("api key rotated", zap.Int64("user_id", p.UserID))
	return &dto.APIKeyResponse{APIKey: apiKey}, nil
}

// Picture returns the on-disk path of the caller's profile picture.
func (s *SettingsService) Picture(ctx context.Context, p *models.Principal) (string, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return "", lookupError(err, "user")
	}
	if user.ProfilePicture == nil || *user.ProfilePicture == "" {
		return "", notFound("profile picture not set")
	}
	path := s.pictures.Path(*user.ProfilePicture)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", notFound("profile picture not found")
		}
		return "", appErrors.Internal(err, "failed to open profile picture")
	}
	return path, nil
}
