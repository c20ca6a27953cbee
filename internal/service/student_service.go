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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error)
	FindByStudentID(ctx context.Context, studentID int64) (*models.StudentRecord, error)
	Create(ctx context.Context, user *models.User, student *models.Student) error
	Update(ctx context.Context, userID int64, userFields, studentFields map[string]interface{}) error
	Delete(ctx context.Context, userID int64) error
}

type classReader interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
}

type progressReader interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
}

type attendanceReader interface {
	ListByStudents(ctx context.Context, studentIDs []int64) ([]models.Attendance, error)
}

// StudentService manages student accounts for administrators.
type StudentService struct {
	repo       studentRepository
	users      uniqueUserChecker
	classes    classReader
	grades     progressReader
	attendance attendanceReader
	pictures   pictureRemover
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, users uniqueUserChecker, classes classReader, grades progressReader, attendance attendanceReader, pictures pictureRemover, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:       repo,
		users:      users,
		classes:    classes,
		grades:     grades,
		attendance: attendance,
		pictures:   pictures,
		validator:  registerValidations(validate),
		logger:     logger,
	}
}

// List returns students matching the search across names, username and class name.
func (s *StudentService) List(ctx context.Context, search string) ([]models.StudentRecord, error) {
	students, err := s.repo.List(ctx, models.StudentFilter{Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	return students, nil
}

// Get returns the nested student view with grades and attendance.
func (s *StudentService) Get(ctx context.Context, studentID int64) (*dto.StudentDetail, error) {
	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student")
	}

	var class *models.Class
	if student.ClassID != nil {
		class, err = s.classes.FindByID(ctx, *student.ClassID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to load class")
		}
	}
	grades, err := s.grades.List(ctx, models.GradeFilter{StudentIDs: []int64{student.ID}})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load grades")
	}
	attendance, err := s.attendance.ListByStudents(ctx, []int64{student.ID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}

	return &dto.StudentDetail{
		UserID:         student.ID,
		StudentID:      student.StudentID,
		Username:       student.Username,
		FirstName:      student.FirstName,
		LastName:       student.LastName,
		Email:          student.Email,
		PhoneNumber:    student.PhoneNumber,
		ProfilePicture: student.ProfilePicture,
		APIKey:         student.APIKey,
		Class:          dto.NewClassRef(class),
		BirthDate:      student.BirthDate,
		Address:        student.Address,
		Grades:         grades,
		Attendance:     attendance,
	}, nil
}

// Create registers a student account with a generated student number and API key.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*dto.StudentCreated, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid student payload")
	}
	birthDate, err := models.ParseDate(req.BirthDate)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	class, err := s.requireClass(ctx, req.ClassID)
	if err != nil {
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
	student := &models.Student{
		ClassID:   &class.ID,
		BirthDate: birthDate,
		Address:   strings.TrimSpace(req.Address),
	}
	if err := s.repo.Create(ctx, user, student); err != nil {
		return nil, writeError(err, "failed to create student")
	}

	s.logger.Info("student created", zap.Int64("student_id", student.StudentID), zap.String("username", user.Username))
	return &dto.StudentCreated{
		UserID:    user.ID,
		StudentID: student.StudentID,
		Username:  user.Username,
		Email:     user.Email,
		APIKey:    user.APIKey,
		Class:     dto.NewClassRef(class),
		BirthDate: student.BirthDate,
	}, nil
}

// Patch applies the present fields of req to the student.
func (s *StudentService) Patch(ctx context.Context, studentID int64, req dto.PatchStudentRequest) (*dto.UpdateResult, error) {
	if req.Empty() {
		return nil, appErrors.ErrNoFieldsToUpdate
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid student payload")
	}
	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student")
	}

	userFields, updated, err := userColumns(ctx, s.users, student.ID, req.UserPatch)
	if err != nil {
		return nil, err
	}
	studentFields := make(map[string]interface{})
	if req.ClassID != nil {
		if _, err := s.requireClass(ctx, *req.ClassID); err != nil {
			return nil, err
		}
		studentFields["class_id"] = *req.ClassID
		updated = append(updated, "class_id")
	}
	if req.BirthDate != nil {
		birthDate, err := models.ParseDate(*req.BirthDate)
		if err != nil {
			return nil, appErrors.Validation(err, err.Error())
		}
		studentFields["birth_date"] = birthDate
		updated = append(updated, "birth_date")
	}
	if req.Address != nil {
		studentFields["address"] = strings.TrimSpace(*req.Address)
		updated = append(updated, "address")
	}

	if err := s.repo.Update(ctx, student.ID, userFields, studentFields); err != nil {
		return nil, writeError(err, "failed to update student")
	}
	replacePicture(s.pictures, student.ProfilePicture, req.ProfilePicture, s.logger, student.ID)
	s.logger.Info("student updated", zap.Int64("student_id", studentID), zap.Strings("fields", updated))
	return &dto.UpdateResult{Message: "student updated", ID: studentID, UpdatedFields: updated}, nil
}

// Delete removes the student together with its user, grades and attendance.
func (s *StudentService) Delete(ctx context.Context, studentID int64) error {
	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		return lookupError(err, "student")
	}
	if err := s.repo.Delete(ctx, student.ID); err != nil {
		return appErrors.Internal(err, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.Int64("student_id", studentID))
	return nil
}

func (s *StudentService) requireClass(ctx context.Context, classID int64) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, badRequest("class not found")
		}
		return nil, appErrors.Internal(err, "failed to load class")
	}
	return class, nil
}
