package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/bootstrap"
	"github.com/noah-isme/school-diary-api/internal/handler"
	internalmiddleware "github.com/noah-isme/school-diary-api/internal/middleware"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/internal/service"
	"github.com/noah-isme/school-diary-api/pkg/config"
	"github.com/noah-isme/school-diary-api/pkg/storage"
)

type app struct {
	services *bootstrap.Services
	metrics  *service.MetricsService
	logger   *zap.Logger

	auth          *handler.AuthHandler
	students      *handler.StudentHandler
	teachers      *handler.TeacherHandler
	schedules     *handler.ScheduleHandler
	subjects      *handler.SubjectHandler
	classes       *handler.ClassHandler
	gradebook     *handler.GradebookHandler
	studentPortal *handler.StudentPortalHandler
	settings      *handler.SettingsHandler
	exports       *handler.ExportHandler
}

func newApp(cfg *config.Config, db *sqlx.DB, cacheSvc *service.CacheService, images *storage.LocalStorage, metricsSvc *service.MetricsService, logr *zap.Logger) *app {
	services := bootstrap.NewServices(bootstrap.NewRepositories(db), bootstrap.Options{
		JWT:     cfg.JWT,
		Cache:   cacheSvc,
		Images:  images,
		Metrics: metricsSvc,
		Logger:  logr,
	})

	return &app{
		services:      services,
		metrics:       metricsSvc,
		logger:        logr,
		auth:          handler.NewAuthHandler(services.Auth, logr),
		students:      handler.NewStudentHandler(services.Students, images),
		teachers:      handler.NewTeacherHandler(services.Teachers, images),
		schedules:     handler.NewScheduleHandler(services.Schedules),
		subjects:      handler.NewSubjectHandler(services.Subjects),
		classes:       handler.NewClassHandler(services.Classes),
		gradebook:     handler.NewGradebookHandler(services.Gradebook),
		studentPortal: handler.NewStudentPortalHandler(services.StudentPortal),
		settings:      handler.NewSettingsHandler(services.Settings, images),
		exports:       handler.NewExportHandler(services.Exports),
	}
}

func (a *app) authorize(role models.Role) gin.HandlerFunc {
	return internalmiddleware.Authorize(a.services.Auth, role, a.logger, a.metrics)
}

func (a *app) register(r *gin.Engine, prefix string) {
	r.POST("/login", a.auth.WebLogin)
	r.POST("/logout", a.auth.Logout)

	api := r.Group(prefix)
	api.POST("/auth/token", a.auth.Token)

	admin := api.Group("/admin", a.authorize(models.RoleAdmin))
	{
		students := admin.Group("", internalmiddleware.Audit(a.logger, "student"))
		students.GET("/students", a.students.List)
		students.GET("/students/excel", a.exports.Students)
		students.GET("/student/:id", a.students.Get)
		students.POST("/student", a.students.Create)
		students.PATCH("/student/:id", a.students.Patch)
		students.DELETE("/student/:id", a.students.Delete)

		teachers := admin.Group("", internalmiddleware.Audit(a.logger, "teacher"))
		teachers.GET("/teachers", a.teachers.List)
		teachers.GET("/teachers/excel", a.exports.Teachers)
		teachers.GET("/teacher/:id", a.teachers.Get)
		teachers.POST("/teacher", a.teachers.Create)
		teachers.PATCH("/teacher/:id", a.teachers.Patch)
		teachers.DELETE("/teacher/:id", a.teachers.Delete)

		schedules := admin.Group("", internalmiddleware.Audit(a.logger, "schedule"))
		schedules.GET("/schedules", a.schedules.List)
		schedules.GET("/schedules/excel", a.exports.Schedules)
		schedules.GET("/schedule/:id", a.schedules.Get)
		schedules.POST("/schedule", a.schedules.Create)
		schedules.PATCH("/schedule/:id", a.schedules.Patch)
		schedules.DELETE("/schedule/:id", a.schedules.Delete)

		subjects := admin.Group("", internalmiddleware.Audit(a.logger, "subject"))
		subjects.GET("/subjects", a.subjects.List)
		subjects.GET("/subjects/excel", a.exports.Subjects)
		subjects.GET("/subject/:id", a.subjects.Get)
		subjects.POST("/subject", a.subjects.Create)
		subjects.PATCH("/subject/:id", a.subjects.Patch)
		subjects.DELETE("/subject/:id", a.subjects.Delete)

		admin.GET("/classes", a.teachers.ListClasses)
		admin.GET("/positions", a.teachers.ListPositions)
	}

	teacher := api.Group("/teacher", a.authorize(models.RoleTeacher), internalmiddleware.Audit(a.logger, "teacher_workspace"))
	{
		teacher.GET("/schedule", a.classes.Schedule)
		teacher.GET("/my_schedule/export", a.exports.TeacherSchedule)
		teacher.GET("/classes", a.classes.List)
		teacher.POST("/classes", a.classes.Create)
		teacher.DELETE("/classes/:class_id", a.classes.Delete)
		teacher.GET("/classes/:class_id/subjects", a.classes.Subjects)
		teacher.GET("/classes/:class_id/subjects/:subject_id/report", a.exports.SubjectReport)
		teacher.GET("/teachers/free", a.classes.FreeTeachers)
		teacher.GET("/my_class", a.classes.MyClass)
		teacher.GET("/my_class/export", a.exports.MyClass)

		teacher.GET("/grades/:class_id", a.gradebook.ListGrades)
		teacher.POST("/grades", a.gradebook.CreateGrade)
		teacher.PUT("/grades/:grade_id", a.gradebook.UpdateGrade)
		teacher.DELETE("/grades/:grade_id", a.gradebook.DeleteGrade)

		teacher.GET("/homework/:class_id", a.gradebook.ListHomework)
		teacher.POST("/homework", a.gradebook.CreateHomework)

		teacher.GET("/attendance/:class_id", a.gradebook.ListAttendance)
		teacher.POST("/attendance", a.gradebook.CreateAttendance)
		teacher.PUT("/attendance/:attendance_id", a.gradebook.UpdateAttendance)
	}

	student := api.Group("/student", a.authorize(models.RoleStudent))
	{
		student.GET("/schedule", a.studentPortal.Schedule)
		student.GET("/subjects", a.studentPortal.Subjects)
		student.GET("/grades_attendance/:subject_id", a.studentPortal.GradesAttendance)
		student.GET("/homework", a.studentPortal.Homework)
		student.GET("/classmates", a.studentPortal.Classmates)
	}

	user := api.Group("/user", a.authorize(""), internalmiddleware.Audit(a.logger, "settings"))
	{
		user.GET("/settings", a.settings.Get)
		user.PATCH("/settings", a.settings.Patch)
		user.POST("/settings/api_key", a.settings.RotateAPIKey)
		user.GET("/settings/picture", a.settings.Picture)
	}
}
