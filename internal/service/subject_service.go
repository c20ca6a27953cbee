package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, search string) ([]models.Subject, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// SubjectService manages subjects and caches the unfiltered subject list.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService. cache may be nil.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: registerValidations(validate), logger: logger}
}

// List returns subjects matching search. The full list is served from cache when possible.
func (s *SubjectService) List(ctx context.Context, search string) ([]models.Subject, error) {
	search = strings.TrimSpace(search)
	load := func(ctx context.Context) ([]models.Subject, error) {
		subjects, err := s.repo.List(ctx, search)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list subjects")
		}
		return subjects, nil
	}
	if search != "" {
		return load(ctx)
	}
	return s.cache.Subjects(ctx, load)
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject")
	}
	return subject, nil
}

// Create inserts a subject with a unique name.
func (s *SubjectService) Create(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error) {
	req.SubjectName = strings.TrimSpace(req.SubjectName)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid subject payload")
	}
	if err := s.ensureUniqueName(ctx, req.SubjectName, 0); err != nil {
		return nil, err
	}
	subject := &models.Subject{Name: req.SubjectName}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, writeError(err, "failed to create subject")
	}
	s.invalidate(ctx)
	s.logger.Info("subject created", zap.Int64("subject_id", subject.ID))
	return subject, nil
}

// Patch renames a subject.
func (s *SubjectService) Patch(ctx context.Context, id int64, req dto.PatchSubjectRequest) (*dto.UpdateResult, error) {
	if req.SubjectName == nil {
		return nil, appErrors.ErrNoFieldsToUpdate
	}
	name := strings.TrimSpace(*req.SubjectName)
	req.SubjectName = &name
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid subject payload")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupError(err, "subject")
	}
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, id, name); err != nil {
		return nil, writeError(err, "failed to update subject")
	}
	s.invalidate(ctx)
	return &dto.UpdateResult{Message: "subject updated", ID: id, UpdatedFields: []string{"subject_name"}}, nil
}

// Delete removes a subject unless grades or homework reference it.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "subject")
	}
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check subject usage")
	}
	if referenced {
		return badRequest("subject is used by grades or homework")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete subject")
	}
	s.invalidate(ctx)
	s.logger.Info("subject deleted", zap.Int64("subject_id", id))
	return nil
}

func (s *SubjectService) ensureUniqueName(ctx context.Context, name string, excludeID int64) error {
	taken, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to validate subject name")
	}
	if taken {
		return badRequest("subject name already exists")
	}
	return nil
}

func (s *SubjectService) invalidate(ctx context.Context) {
	// the write is committed; a stale list expires with the TTL
	_ = s.cache.InvalidateSubjects(ctx)
}
