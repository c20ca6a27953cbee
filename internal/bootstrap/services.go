// Package bootstrap wires repositories into the service layer shared by the API and the bot.
package bootstrap

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/repository"
	"github.com/noah-isme/school-diary-api/internal/service"
	"github.com/noah-isme/school-diary-api/pkg/config"
	"github.com/noah-isme/school-diary-api/pkg/storage"
)

// Repositories groups the Postgres repositories.
type Repositories struct {
	Users      *repository.UserRepository
	Students   *repository.StudentRepository
	Teachers   *repository.TeacherRepository
	Classes    *repository.ClassRepository
	Subjects   *repository.SubjectRepository
	Schedules  *repository.ScheduleRepository
	Grades     *repository.GradeRepository
	Attendance *repository.AttendanceRepository
	Homework   *repository.HomeworkRepository
	Positions  *repository.PositionRepository
	Telegram   *repository.TelegramSessionRepository
}

// NewRepositories constructs every repository on db.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:      repository.NewUserRepository(db),
		Students:   repository.NewStudentRepository(db),
		Teachers:   repository.NewTeacherRepository(db),
		Classes:    repository.NewClassRepository(db),
		Subjects:   repository.NewSubjectRepository(db),
		Schedules:  repository.NewScheduleRepository(db),
		Grades:     repository.NewGradeRepository(db),
		Attendance: repository.NewAttendanceRepository(db),
		Homework:   repository.NewHomeworkRepository(db),
		Positions:  repository.NewPositionRepository(db),
		Telegram:   repository.NewTelegramSessionRepository(db),
	}
}

// Services groups the domain services.
type Services struct {
	Auth          *service.AuthService
	Students      *service.StudentService
	Teachers      *service.TeacherService
	Schedules     *service.ScheduleService
	Subjects      *service.SubjectService
	Classes       *service.ClassService
	Gradebook     *service.GradebookService
	StudentPortal *service.StudentPortalService
	Settings      *service.SettingsService
	Exports       *service.ExportService
}

// Options carries the shared infrastructure services depend on.
type Options struct {
	JWT     config.JWTConfig
	Cache   *service.CacheService
	Images  *storage.LocalStorage
	Metrics *service.MetricsService
	Logger  *zap.Logger
}

// NewServices constructs every service over repos.
func NewServices(repos *Repositories, opts Options) *Services {
	validate := service.NewValidator()
	logr := opts.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	auth := service.NewAuthService(repos.Users, validate, logr, service.AuthConfig{
		Secret: opts.JWT.Secret,
		Issuer: opts.JWT.Issuer,
		Expiry: opts.JWT.Expiration,
	})
	students := service.NewStudentService(repos.Students, repos.Users, repos.Classes, repos.Grades, repos.Attendance, opts.Images, validate, logr)
	teachers := service.NewTeacherService(repos.Teachers, repos.Users, repos.Classes, repos.Positions, repos.Subjects, repos.Schedules, opts.Images, validate, logr)
	schedules := service.NewScheduleService(repos.Schedules, repos.Classes, repos.Subjects, repos.Teachers, validate, logr)
	subjects := service.NewSubjectService(repos.Subjects, opts.Cache, validate, logr)
	classes := service.NewClassService(service.ClassDeps{
		Classes:    repos.Classes,
		Students:   repos.Students,
		Teachers:   repos.Teachers,
		Subjects:   repos.Subjects,
		Schedules:  repos.Schedules,
		Grades:     repos.Grades,
		Attendance: repos.Attendance,
	}, validate, logr)
	gradebook := service.NewGradebookService(service.GradebookDeps{
		Grades:     repos.Grades,
		Attendance: repos.Attendance,
		Homework:   repos.Homework,
		Students:   repos.Students,
		Classes:    repos.Classes,
		Subjects:   repos.Subjects,
		Schedules:  repos.Schedules,
	}, validate, logr)
	portal := service.NewStudentPortalService(service.StudentPortalDeps{
		Students:   repos.Students,
		Schedules:  repos.Schedules,
		Subjects:   repos.Subjects,
		Grades:     repos.Grades,
		Attendance: repos.Attendance,
		Homework:   repos.Homework,
	}, logr)
	settings := service.NewSettingsService(repos.Users, opts.Images, validate, logr)
	exports := service.NewExportService(service.ExportDeps{
		Students:  students,
		Teachers:  teachers,
		Schedules: schedules,
		Subjects:  subjects,
		Gradebook: gradebook,
		Classes:   classes,
	}, opts.Metrics, logr)

	return &Services{
		Auth:          auth,
		Students:      students,
		Teachers:      teachers,
		Schedules:     schedules,
		Subjects:      subjects,
		Classes:       classes,
		Gradebook:     gradebook,
		StudentPortal: portal,
		Settings:      settings,
		Exports:       exports,
	}
}
