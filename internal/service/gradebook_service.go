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

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
	FindByID(ctx context.Context, id int64) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type attendanceRepository interface {
	ListByStudents(ctx context.Context, studentIDs []int64) ([]models.Attendance, error)
	ListByClass(ctx context.Context, classID int64) ([]models.Attendance, error)
	FindByID(ctx context.Context, id int64) (*models.Attendance, error)
	Create(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
}

type homeworkRepository interface {
	ListByClass(ctx context.Context, classID int64) ([]models.Homework, error)
	Create(ctx context.Context, item *models.Homework) error
}

type classStudentReader interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error)
	FindByUserID(ctx context.Context, userID int64) (*models.StudentRecord, error)
}

type teacherClassChecker interface {
	ExistsForTeacherClass(ctx context.Context, teacherID, classID int64) (bool, error)
}

// GradebookService records grades, attendance and homework on behalf of teachers. Every operation
// enforces the class access rule: a head teacher may work with any class, other teachers only with
// classes they have lessons in.
type GradebookService struct {
	grades     gradeRepository
	attendance attendanceRepository
	homework   homeworkRepository
	students   classStudentReader
	classes    classReader
	subjects   subjectReader
	schedules  teacherClassChecker
	validator  *validator.Validate
	logger     *zap.Logger
}

// GradebookDeps groups the repositories used by GradebookService.
type GradebookDeps struct {
	Grades     gradeRepository
	Attendance attendanceRepository
	Homework   homeworkRepository
	Students   classStudentReader
	Classes    classReader
	Subjects   subjectReader
	Schedules  teacherClassChecker
}

// NewGradebookService constructs a GradebookService.
func NewGradebookService(deps GradebookDeps, validate *validator.Validate, logger *zap.Logger) *GradebookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{
		grades:     deps.Grades,
		attendance: deps.Attendance,
		homework:   deps.Homework,
		students:   deps.Students,
		classes:    deps.Classes,
		subjects:   deps.Subjects,
		schedules:  deps.Schedules,
		validator:  registerValidations(validate),
		logger:     logger,
	}
}

// AuthorizeClass enforces the class access rule for the caller.
func (s *GradebookService) AuthorizeClass(ctx context.Context, p *models.Principal, classID int64) error {
	if !p.Is(models.RoleTeacher) {
		return forbidden("teacher role required")
	}
	if p.IsHeadTeacher() {
		return nil
	}
	allowed, err := s.schedules.ExistsForTeacherClass(ctx, p.RoleID, classID)
	if err != nil {
		return appErrors.Internal(err, "failed to check class access")
	}
	if !allowed {
		return forbidden("you do not teach in this class")
	}
	return nil
}

// ClassStudents returns the students of a class.
func (s *GradebookService) ClassStudents(ctx context.Context, p *models.Principal, classID int64) ([]models.StudentRecord, error) {
	if err := s.openClass(ctx, p, classID); err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, models.StudentFilter{ClassID: &classID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	return students, nil
}

// ClassGrades returns every grade of the students of a class.
func (s *GradebookService) ClassGrades(ctx context.Context, p *models.Principal, classID int64) ([]models.Grade, error) {
	if err := s.openClass(ctx, p, classID); err != nil {
		return nil, err
	}
	grades, err := s.grades.List(ctx, models.GradeFilter{ClassID: &classID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list grades")
	}
	return grades, nil
}

// CreateGrade records a grade for a student.
func (s *GradebookService) CreateGrade(ctx context.Context, p *models.Principal, req dto.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid grade payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	student, err := s.openStudent(ctx, p, req.StudentID)
	if err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, lookupError(err, "subject")
	}

	grade := &models.Grade{StudentID: student.ID, SubjectID: subject.ID, Grade: req.Grade, Date: date}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, writeError(err, "failed to create grade")
	}
	grade.SubjectName = subject.Name
	grade.StudentName = student.FullName()
	s.logger.Info("grade created", zap.Int64("grade_id", grade.ID), zap.Int64("teacher_id", p.RoleID))
	return grade, nil
}

// UpdateGrade changes the value or date of a grade.
func (s *GradebookService) UpdateGrade(ctx context.Context, p *models.Principal, gradeID int64, req dto.UpdateGradeRequest) (*dto.UpdateResult, error) {
	if req.Grade == nil && req.Date == nil {
		return nil, appErrors.ErrNoFieldsToUpdate
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid grade payload")
	}
	grade, err := s.grades.FindByID(ctx, gradeID)
	if err != nil {
		return nil, lookupError(err, "grade")
	}
	if _, err := s.openStudent(ctx, p, grade.StudentID); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	var updated []string
	if req.Grade != nil {
		fields["grade"] = *req.Grade
		updated = append(updated, "grade")
	}
	if req.Date != nil {
		date, err := models.ParseDate(*req.Date)
		if err != nil {
			return nil, appErrors.Validation(err, err.Error())
		}
		fields["date"] = date
		updated = append(updated, "date")
	}
	if err := s.grades.Update(ctx, gradeID, fields); err != nil {
		return nil, writeError(err, "failed to update grade")
	}
	return &dto.UpdateResult{Message: "grade updated", ID: gradeID, UpdatedFields: updated}, nil
}

// DeleteGrade removes a grade.
func (s *GradebookService) DeleteGrade(ctx context.Context, p *models.Principal, gradeID int64) error {
	grade, err := s.grades.FindByID(ctx, gradeID)
	if err != nil {
		return lookupError(err, "grade")
	}
	if _, err := s.openStudent(ctx, p, grade.StudentID); err != nil {
		return err
	}
	if err := s.grades.Delete(ctx, gradeID); err != nil {
		return appErrors.Internal(err, "failed to delete grade")
	}
	s.logger.Info("grade deleted", zap.Int64("grade_id", gradeID), zap.Int64("teacher_id", p.RoleID))
	return nil
}

// ClassHomework returns the homework of a class ordered by due date.
func (s *GradebookService) ClassHomework(ctx context.Context, p *models.Principal, classID int64) ([]models.Homework, error) {
	if err := s.openClass(ctx, p, classID); err != nil {
		return nil, err
	}
	items, err := s.homework.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list homework")
	}
	return items, nil
}

// CreateHomework assigns a task to a class.
func (s *GradebookService) CreateHomework(ctx context.Context, p *models.Principal, req dto.CreateHomeworkRequest) (*models.Homework, error) {
	req.Task = strings.TrimSpace(req.Task)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid homework payload")
	}
	due, err := models.ParseDate(req.DueDate)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	if err := s.openClass(ctx, p, req.ClassID); err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, lookupError(err, "subject")
	}

	item := &models.Homework{SubjectID: subject.ID, ClassID: req.ClassID, Task: req.Task, DueDate: due}
	if err := s.homework.Create(ctx, item); err != nil {
		return nil, writeError(err, "failed to create homework")
	}
	item.SubjectName = subject.Name
	s.logger.Info("homework created", zap.Int64("homework_id", item.ID), zap.Int64("class_id", item.ClassID))
	return item, nil
}

// ClassAttendance returns attendance marks of a class.
func (s *GradebookService) ClassAttendance(ctx context.Context, p *models.Principal, classID int64) ([]models.Attendance, error) {
	if err := s.openClass(ctx, p, classID); err != nil {
		return nil, err
	}
	records, err := s.attendance.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	return records, nil
}

// CreateAttendance records presence or absence of a student.
func (s *GradebookService) CreateAttendance(ctx context.Context, p *models.Principal, req dto.CreateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid attendance payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	student, err := s.openStudent(ctx, p, req.StudentID)
	if err != nil {
		return nil, err
	}

	record := &models.Attendance{StudentID: student.ID, Date: date, Status: req.Status}
	if err := s.attendance.Create(ctx, record); err != nil {
		return nil, writeError(err, "failed to create attendance")
	}
	record.StudentName = student.FullName()
	return record, nil
}

// UpdateAttendance changes the date or status of an attendance mark.
func (s *GradebookService) UpdateAttendance(ctx context.Context, p *models.Principal, id int64, req dto.UpdateAttendanceRequest) (*dto.UpdateResult, error) {
	if req.Date == nil && req.Status == nil {
		return nil, appErrors.ErrNoFieldsToUpdate
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid attendance payload")
	}
	record, err := s.attendance.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "attendance")
	}
	if _, err := s.openStudent(ctx, p, record.StudentID); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	var updated []string
	if req.Date != nil {
		date, err := models.ParseDate(*req.Date)
		if err != nil {
			return nil, appErrors.Validation(err, err.Error())
		}
		fields["date"] = date
		updated = append(updated, "date")
	}
	if req.Status != nil {
		fields["status"] = *req.Status
		updated = append(updated, "status")
	}
	if err := s.attendance.Update(ctx, id, fields); err != nil {
		return nil, writeError(err, "failed to update attendance")
	}
	return &dto.UpdateResult{Message: "attendance updated", ID: id, UpdatedFields: updated}, nil
}

// SubjectReport returns, for each student of a class, the grades in one subject and the
// attendance marks.
func (s *GradebookService) SubjectReport(ctx context.Context, p *models.Principal, classID, subjectID int64) (*models.Class, *models.Subject, []dto.StudentProgress, error) {
	if err := s.AuthorizeClass(ctx, p, classID); err != nil {
		return nil, nil, nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, nil, nil, lookupError(err, "class")
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, nil, nil, lookupError(err, "subject")
	}
	students, err := s.students.List(ctx, models.StudentFilter{ClassID: &classID})
	if err != nil {
		return nil, nil, nil, appErrors.Internal(err, "failed to list students")
	}
	grades, err := s.grades.List(ctx, models.GradeFilter{ClassID: &classID, SubjectID: &subjectID})
	if err != nil {
		return nil, nil, nil, appErrors.Internal(err, "failed to list grades")
	}
	attendance, err := s.attendance.ListByClass(ctx, classID)
	if err != nil {
		return nil, nil, nil, appErrors.Internal(err, "failed to list attendance")
	}
	return class, subject, progressByStudent(students, grades, attendance), nil
}

// openClass checks access and existence of a class.
func (s *GradebookService) openClass(ctx context.Context, p *models.Principal, classID int64) error {
	if err := s.AuthorizeClass(ctx, p, classID); err != nil {
		return err
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return lookupError(err, "class")
	}
	return nil
}

// openStudent loads a student by user id and checks access to the student's class.
func (s *GradebookService) openStudent(ctx context.Context, p *models.Principal, studentUserID int64) (*models.StudentRecord, error) {
	student, err := s.students.FindByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if student.ClassID == nil {
		if p.IsHeadTeacher() {
			return student, nil
		}
		return nil, forbidden("student is not enrolled in a class you teach")
	}
	if err := s.AuthorizeClass(ctx, p, *student.ClassID); err != nil {
		return nil, err
	}
	return student, nil
}

// progressByStudent attaches grades and attendance to each student, keeping student order.
func progressByStudent(students []models.StudentRecord, grades []models.Grade, attendance []models.Attendance) []dto.StudentProgress {
	byStudent := make(map[int64]int, len(students))
	result := make([]dto.StudentProgress, len(students))
	for i, st := range students {
		byStudent[st.ID] = i
		result[i] = dto.StudentProgress{StudentRecord: st, Grades: []models.Grade{}, Attendance: []models.Attendance{}}
	}
	for _, g := range grades {
		if i, ok := byStudent[g.StudentID]; ok {
			result[i].Grades = append(result[i].Grades, g)
		}
	}
	for _, a := range attendance {
		if i, ok := byStudent[a.StudentID]; ok {
			result[i].Attendance = append(result[i].Attendance, a)
		}
	}
	return result
}
