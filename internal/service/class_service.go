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

type classRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ListByHomeroomTeacher(ctx context.Context, teacherID int64) ([]models.Class, error)
	ListScheduledForTeacher(ctx context.Context, teacherID int64) ([]models.Class, error)
	HasSchedules(ctx context.Context, classID int64) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id int64) error
}

type classStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error)
	CountByClass(ctx context.Context, classID int64) (int, error)
}

type freeTeacherRepository interface {
	ListFree(ctx context.Context) ([]models.TeacherRecord, error)
	Exists(ctx context.Context, teacherID int64) (bool, error)
}

type classSubjectRepository interface {
	ListForClass(ctx context.Context, classID int64, teacherID *int64) ([]models.Subject, error)
}

// ClassService serves the teacher workspace: classes, subjects per class, the homeroom view and
// the teacher's own schedule. Class management is reserved to head teachers.
type ClassService struct {
	classes    classRepository
	students   classStudentRepository
	teachers   freeTeacherRepository
	subjects   classSubjectRepository
	schedules  scheduleLister
	grades     progressReader
	attendance attendanceReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// ClassDeps groups the repositories used by ClassService.
type ClassDeps struct {
	Classes    classRepository
	Students   classStudentRepository
	Teachers   freeTeacherRepository
	Subjects   classSubjectRepository
	Schedules  scheduleLister
	Grades     progressReader
	Attendance attendanceReader
}

// NewClassService constructs a ClassService.
func NewClassService(deps ClassDeps, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		classes:    deps.Classes,
		students:   deps.Students,
		teachers:   deps.Teachers,
		subjects:   deps.Subjects,
		schedules:  deps.Schedules,
		grades:     deps.Grades,
		attendance: deps.Attendance,
		validator:  registerValidations(validate),
		logger:     logger,
	}
}

// ListForTeacher returns every class for a head teacher, otherwise the classes in the teacher's
// schedule.
func (s *ClassService) ListForTeacher(ctx context.Context, p *models.Principal) ([]models.Class, error) {
	var (
		classes []models.Class
		err     error
	)
	if p.IsHeadTeacher() {
		classes, err = s.classes.List(ctx)
	} else {
		classes, err = s.classes.ListScheduledForTeacher(ctx, p.RoleID)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, nil
}

// Create adds a class with an optional homeroom teacher.
func (s *ClassService) Create(ctx context.Context, p *models.Principal, req dto.CreateClassRequest) (*models.Class, error) {
	if err := requireHeadTeacher(p); err != nil {
		return nil, err
	}
	req.ClassName = strings.TrimSpace(req.ClassName)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid class payload")
	}
	taken, err := s.classes.ExistsByName(ctx, req.ClassName)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to validate class name")
	}
	if taken {
		return nil, badRequest("class name already exists")
	}
	if req.TeacherID != nil {
		found, err := s.teachers.Exists(ctx, *req.TeacherID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load teacher")
		}
		if !found {
			return nil, badRequest("teacher not found")
		}
	}

	class := &models.Class{Name: req.ClassName, TeacherID: req.TeacherID}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, writeError(err, "failed to create class")
	}
	s.logger.Info("class created", zap.Int64("class_id", class.ID), zap.Int64("by_teacher", p.RoleID))
	return class, nil
}

// Delete removes a class that has neither students nor lessons.
func (s *ClassService) Delete(ctx context.Context, p *models.Principal, classID int64) error {
	if err := requireHeadTeacher(p); err != nil {
		return err
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return lookupError(err, "class")
	}
	enrolled, err := s.students.CountByClass(ctx, classID)
	if err != nil {
		return appErrors.Internal(err, "failed to count students")
	}
	if enrolled > 0 {
		return badRequest("class has enrolled students")
	}
	scheduled, err := s.classes.HasSchedules(ctx, classID)
	if err != nil {
		return appErrors.Internal(err, "failed to check class schedules")
	}
	if scheduled {
		return badRequest("class has scheduled lessons")
	}
	if err := s.classes.Delete(ctx, classID); err != nil {
		return writeError(err, "failed to delete class")
	}
	s.logger.Info("class deleted", zap.Int64("class_id", classID), zap.Int64("by_teacher", p.RoleID))
	return nil
}

// FreeTeachers lists teachers without a homeroom class.
func (s *ClassService) FreeTeachers(ctx context.Context, p *models.Principal) ([]models.TeacherRecord, error) {
	if err := requireHeadTeacher(p); err != nil {
		return nil, err
	}
	teachers, err := s.teachers.ListFree(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list free teachers")
	}
	return teachers, nil
}

// SubjectsForClass returns all subjects scheduled in the class for a head teacher, otherwise only
// those the teacher teaches there.
func (s *ClassService) SubjectsForClass(ctx context.Context, p *models.Principal, classID int64) ([]models.Subject, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, lookupError(err, "class")
	}
	var teacherID *int64
	if !p.IsHeadTeacher() {
		teacherID = &p.RoleID
	}
	subjects, err := s.subjects.ListForClass(ctx, classID, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class subjects")
	}
	return subjects, nil
}

// MyClass returns the homeroom class of the teacher with students' grades and attendance and the
// class schedule.
func (s *ClassService) MyClass(ctx context.Context, p *models.Principal) (*dto.MyClass, error) {
	classes, err := s.classes.ListByHomeroomTeacher(ctx, p.RoleID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load homeroom class")
	}
	if len(classes) == 0 {
		return nil, notFound("you are not a homeroom teacher")
	}
	class := classes[0]

	students, err := s.students.List(ctx, models.StudentFilter{ClassID: &class.ID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	ids := make([]int64, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	grades, err := s.grades.List(ctx, models.GradeFilter{ClassID: &class.ID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list grades")
	}
	attendance, err := s.attendance.ListByStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	schedule, err := s.schedules.List(ctx, models.ScheduleFilter{ClassID: &class.ID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedule")
	}
	sortSchedule(schedule)

	return &dto.MyClass{
		Class:    class,
		Students: progressByStudent(students, grades, attendance),
		Schedule: schedule,
	}, nil
}

// TeacherSchedule returns the caller's lessons ordered by day then start time.
func (s *ClassService) TeacherSchedule(ctx context.Context, p *models.Principal) ([]models.ScheduleRecord, error) {
	schedule, err := s.schedules.List(ctx, models.ScheduleFilter{TeacherID: &p.RoleID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedule")
	}
	sortSchedule(schedule)
	return schedule, nil
}

func requireHeadTeacher(p *models.Principal) error {
	if !p.IsHeadTeacher() {
		return forbidden("only the head teacher may do this")
	}
	return nil
}
