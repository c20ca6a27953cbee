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
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, search string) ([]models.TeacherRecord, error)
	FindByTeacherID(ctx context.Context, teacherID int64) (*models.TeacherRecord, error)
	Assignments(ctx context.Context, teacherID int64) ([]models.AssignedSubject, error)
	HasSchedules(ctx context.Context, teacherID int64) (bool, error)
	Create(ctx context.Context, user *models.User, teacher *models.Teacher, positionID int64, subjectIDs []int64, classID *int64) error
	Update(ctx context.Context, teacher models.Teacher, change models.TeacherUpdate) error
	Delete(ctx context.Context, teacher models.Teacher) error
}

type teacherClassRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	ListByHomeroomTeacher(ctx context.Context, teacherID int64) ([]models.Class, error)
}

type positionRepository interface {
	List(ctx context.Context) ([]models.Position, error)
	FindByID(ctx context.Context, id int64) (*models.Position, error)
}

type subjectCounter interface {
	CountExisting(ctx context.Context, ids []int64) (int, error)
}

type scheduleLister interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error)
}

// TeacherService manages teacher accounts, their positions and subjects.
type TeacherService struct {
	repo      teacherRepository
	users     uniqueUserChecker
	classes   teacherClassRepository
	positions positionRepository
	subjects  subjectCounter
	schedules scheduleLister
	pictures  pictureRemover
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, users uniqueUserChecker, classes teacherClassRepository, positions positionRepository, subjects subjectCounter, schedules scheduleLister, pictures pictureRemover, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		repo:      repo,
		users:     users,
		classes:   classes,
		positions: positions,
		subjects:  subjects,
		schedules: schedules,
		pictures:  pictures,
		validator: registerValidations(validate),
		logger:    logger,
	}
}

// List returns teachers with homeroom classes and positions.
func (s *TeacherService) List(ctx context.Context, search string) ([]dto.TeacherSummary, error) {
	teachers, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list teachers")
	}
	result := make([]dto.TeacherSummary, 0, len(teachers))
	for i := range teachers {
		summary, err := s.summary(ctx, &teachers[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *summary)
	}
	return result, nil
}

// Get returns the nested teacher view including the schedule.
func (s *TeacherService) Get(ctx context.Context, teacherID int64) (*dto.TeacherDetail, error) {
	teacher, err := s.repo.FindByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, lookupError(err, "teacher")
	}
	summary, err := s.summary(ctx, teacher)
	if err != nil {
		return nil, err
	}
	schedules, err := s.schedules.List(ctx, models.ScheduleFilter{TeacherID: &teacher.TeacherID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedule")
	}
	sortSchedule(schedules)
	return &dto.TeacherDetail{
		TeacherSummary: *summary,
		ProfilePicture: teacher.ProfilePicture,
		APIKey:         teacher.APIKey,
		Schedules:      schedules,
	}, nil
}

// Create registers a teacher with a position, optional subjects and an optional homeroom class.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest) (*dto.TeacherCreated, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	req.SubjectIDs = uniqueIDs(req.SubjectIDs)
	if err := s.checkReferences(ctx, &req.PositionID, req.SubjectIDs, req.ClassID); err != nil {
		return nil, err
	}
	if err := ensureUniqueUser(ctx, s.users, req.Username, req.Email, 0); err != nil {
		return nil, err
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
		Username:       req.Username,
		PasswordHash:   hash,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          &req.Email,
		PhoneNumber:    strings.TrimSpace(req.PhoneNumber),
		ProfilePicture: req.ProfilePicture,
		APIKey:         &apiKey,
	}
	teacher := &models.Teacher{}
	if err := s.repo.Create(ctx, user, teacher, req.PositionID, req.SubjectIDs, req.ClassID); err != nil {
		return nil, writeError(err, "failed to create teacher")
	}

	var classID *int64
	if req.ClassID != nil && *req.ClassID > 0 {
		classID = req.ClassID
	}
	s.logger.Info("teacher created", zap.Int64("teacher_id", teacher.TeacherID), zap.String("username", user.Username))
	return &dto.TeacherCreated{
		UserID:    user.ID,
		TeacherID: teacher.TeacherID,
		Username:  user.Username,
		Email:     user.Email,
		APIKey:    user.APIKey,
		ClassID:   classID,
	}, nil
}

// Patch applies the present fields of req to the teacher.
func (s *TeacherService) Patch(ctx context.Context, teacherID int64, req dto.PatchTeacherRequest) (*dto.UpdateResult, error) {
	if req.Empty() {
		return nil, appErrors.ErrNoFieldsToUpdate
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	teacher, err := s.repo.FindByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, lookupError(err, "teacher")
	}
	if req.SubjectIDs != nil {
		req.SubjectIDs = uniqueIDs(req.SubjectIDs)
	}
	if err := s.checkReferences(ctx, req.PositionID, req.SubjectIDs, req.ClassID); err != nil {
		return nil, err
	}

	userFields, updated, err := userColumns(ctx, s.users, teacher.ID, req.UserPatch)
	if err != nil {
		return nil, err
	}
	change := models.TeacherUpdate{User: userFields, ClassID: req.ClassID, PositionID: req.PositionID, SubjectIDs: req.SubjectIDs}
	if req.ClassID != nil {
		updated = append(updated, "class_id")
	}
	if req.PositionID != nil {
		updated = append(updated, "position_id")
	}
	if req.SubjectIDs != nil {
		updated = append(updated, "subject_ids")
	}

	if err := s.repo.Update(ctx, models.Teacher{UserID: teacher.ID, TeacherID: teacher.TeacherID}, change); err != nil {
		return nil, writeError(err, "failed to update teacher")
	}
	replacePicture(s.pictures, teacher.ProfilePicture, req.ProfilePicture, s.logger, teacher.ID)
	s.logger.Info("teacher updated", zap.Int64("teacher_id", teacherID), zap.Strings("fields", updated))
	return &dto.UpdateResult{Message: "teacher updated", ID: teacherID, UpdatedFields: updated}, nil
}

// Delete removes a teacher that neither teaches scheduled lessons nor leads a class.
func (s *TeacherService) Delete(ctx context.Context, teacherID int64) error {
	teacher, err := s.repo.FindByTeacherID(ctx, teacherID)
	if err != nil {
		return lookupError(err, "teacher")
	}
	scheduled, err := s.repo.HasSchedules(ctx, teacherID)
	if err != nil {
		return appErrors.Internal(err, "failed to check schedules")
	}
	if scheduled {
		return badRequest("teacher has scheduled lessons")
	}
	homeroom, err := s.classes.ListByHomeroomTeacher(ctx, teacherID)
	if err != nil {
		return appErrors.Internal(err, "failed to check classes")
	}
	if len(homeroom) > 0 {
		return badRequest("teacher is assigned to class " + homeroom[0].Name)
	}

	if err := s.repo.Delete(ctx, models.Teacher{UserID: teacher.ID, TeacherID: teacher.TeacherID}); err != nil {
		return appErrors.Internal(err, "failed to delete teacher")
	}
	s.logger.Info("teacher deleted", zap.Int64("teacher_id", teacherID))
	return nil
}

// ListPositions returns the teacher positions.
func (s *TeacherService) ListPositions(ctx context.Context) ([]models.Position, error) {
	positions, err := s.positions.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list positions")
	}
	return positions, nil
}

// ListClasses returns every class.
func (s *TeacherService) ListClasses(ctx context.Context) ([]models.Class, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, nil
}

func (s *TeacherService) summary(ctx context.Context, teacher *models.TeacherRecord) (*dto.TeacherSummary, error) {
	classes, err := s.classes.ListByHomeroomTeacher(ctx, teacher.TeacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher classes")
	}
	assigned, err := s.repo.Assignments(ctx, teacher.TeacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher positions")
	}
	return &dto.TeacherSummary{
		UserID:      teacher.ID,
		TeacherID:   teacher.TeacherID,
		Username:    teacher.Username,
		FirstName:   teacher.FirstName,
		LastName:    teacher.LastName,
		Email:       teacher.Email,
		PhoneNumber: teacher.PhoneNumber,
		Classes:     classes,
		Positions:   groupPositions(assigned),
	}, nil
}

// checkReferences validates the referenced position, subjects and class. A zero class id means no
// homeroom class.
func (s *TeacherService) checkReferences(ctx context.Context, positionID *int64, subjectIDs []int64, classID *int64) error {
	if positionID != nil {
		if _, err := s.positions.FindByID(ctx, *positionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return badRequest("position not found")
			}
			return appErrors.Internal(err, "failed to load position")
		}
	}
	if len(subjectIDs) > 0 {
		found, err := s.subjects.CountExisting(ctx, subjectIDs)
		if err != nil {
			return appErrors.Internal(err, "failed to validate subjects")
		}
		if found != len(subjectIDs) {
			return badRequest("one or more subjects not found")
		}
	}
	if classID != nil && *classID > 0 {
		if _, err := s.classes.FindByID(ctx, *classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return badRequest("class not found")
			}
			return appErrors.Internal(err, "failed to load class")
		}
	}
	return nil
}

// groupPositions folds assignment rows into positions with their subjects, in row order.
func groupPositions(rows []models.AssignedSubject) []dto.PositionSubjects {
	result := make([]dto.PositionSubjects, 0)
	index := make(map[int64]int)
	for _, row := range rows {
		i, ok := index[row.AssignmentID]
		if !ok {
			result = append(result, dto.PositionSubjects{
				PositionID:   row.PositionID,
				PositionName: row.PositionName,
				Subjects:     []models.Subject{},
			})
			i = len(result) - 1
			index[row.AssignmentID] = i
		}
		if row.SubjectID != nil && row.SubjectName != nil {
			result[i].Subjects = append(result[i].Subjects, models.Subject{ID: *row.SubjectID, Name: *row.SubjectName})
		}
	}
	return result
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
