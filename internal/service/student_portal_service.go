package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type portalStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error)
}

type portalSubjectRepository interface {
	subjectReader
	classSubjectRepository
}

type portalHomeworkRepository interface {
	ListByClass(ctx context.Context, classID int64) ([]models.Homework, error)
}

// StudentPortalService serves a student's own class schedule, subjects, marks and homework.
type StudentPortalService struct {
	students   portalStudentRepository
	schedules  scheduleLister
	subjects   portalSubjectRepository
	grades     progressReader
	attendance attendanceReader
	homework   portalHomeworkRepository
	logger     *zap.Logger
}

// StudentPortalDeps groups the repositories used by StudentPortalService.
type StudentPortalDeps struct {
	Students   portalStudentRepository
	Schedules  scheduleLister
	Subjects   portalSubjectRepository
	Grades     progressReader
	Attendance attendanceReader
	Homework   portalHomeworkRepository
}

// NewStudentPortalService constructs a StudentPortalService.
func NewStudentPortalService(deps StudentPortalDeps, logger *zap.Logger) *StudentPortalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentPortalService{
		students:   deps.Students,
		schedules:  deps.Schedules,
		subjects:   deps.Subjects,
		grades:     deps.Grades,
		attendance: deps.Attendance,
		homework:   deps.Homework,
		logger:     logger,
	}
}

// Schedule returns the lessons of the student's class ordered by day then start time.
func (s *StudentPortalService) Schedule(ctx context.Context, p *models.Principal) ([]models.ScheduleRecord, error) {
	classID, err := enrolledClass(p)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedules.List(ctx, models.ScheduleFilter{ClassID: &classID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedule")
	}
	sortSchedule(schedule)
	return schedule, nil
}

// Subjects returns the subjects scheduled for the student's class.
func (s *StudentPortalService) Subjects(ctx context.Context, p *models.Principal) ([]models.Subject, error) {
	classID, err := enrolledClass(p)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListForClass(ctx, classID, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, nil
}

// GradesAttendance returns the student's grades in a subject, attendance and the grade average.
func (s *StudentPortalService) GradesAttendance(ctx context.Context, p *models.Principal, subjectID int64) (*dto.GradesAttendance, error) {
	if !p.Is(models.RoleStudent) {
		return nil, forbidden("student role required")
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, lookupError(err, "subject")
	}
	grades, err := s.grades.List(ctx, models.GradeFilter{StudentIDs: []int64{p.UserID}, SubjectID: &subjectID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list grades")
	}
	attendance, err := s.attendance.ListByStudents(ctx, []int64{p.UserID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	return &dto.GradesAttendance{
		Subject:      *subject,
		Grades:       grades,
		Attendance:   attendance,
		AverageGrade: averageGrade(grades),
	}, nil
}

// Homework returns the homework of the student's class ordered by due date.
func (s *StudentPortalService) Homework(ctx context.Context, p *models.Principal) ([]models.Homework, error) {
	classID, err := enrolledClass(p)
	if err != nil {
		return nil, err
	}
	items, err := s.homework.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list homework")
	}
	return items, nil
}

// Classmates returns the other students of the caller's class.
func (s *StudentPortalService) Classmates(ctx context.Context, p *models.Principal) ([]models.StudentRecord, error) {
	classID, err := enrolledClass(p)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, models.StudentFilter{ClassID: &classID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classmates")
	}
	classmates := make([]models.StudentRecord, 0, len(students))
	for _, st := range students {
		if st.ID == p.UserID {
			continue
		}
		st.APIKey = nil
		classmates = append(classmates, st)
	}
	return classmates, nil
}

func enrolledClass(p *models.Principal) (int64, error) {
	if !p.Is(models.RoleStudent) {
		return 0, forbidden("student role required")
	}
	if p.ClassID == nil {
		return 0, notFound("you are not enrolled in a class")
	}
	return *p.ClassID, nil
}

// averageGrade is rounded to two decimals, nil without grades.
func averageGrade(grades []models.Grade) *float64 {
	if len(grades) == 0 {
		return nil
	}
	sum := 0
	for _, g := range grades {
		sum += g.Grade
	}
	avg := math.Round(float64(sum)/float64(len(grades))*100) / 100
	return &avg
}
