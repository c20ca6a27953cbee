package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/internal/service"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type exportService interface {
	Students(ctx context.Context, search, format string) (*service.ExportFile, error)
	Teachers(ctx context.Context, search, format string) (*service.ExportFile, error)
	Schedules(ctx context.Context, filter models.ScheduleFilter, format string) (*service.ExportFile, error)
	Subjects(ctx context.Context, search, format string) (*service.ExportFile, error)
	SubjectReport(ctx context.Context, p *models.Principal, classID, subjectID int64, format string) (*service.ExportFile, error)
	TeacherSchedule(ctx context.Context, p *models.Principal, format string) (*service.ExportFile, error)
	MyClassReport(ctx context.Context, p *models.Principal) (*service.ExportFile, error)
}

// ExportHandler streams spreadsheet, CSV and PDF downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// exportFormat validates the format query before any data is loaded.
func exportFormat(c *gin.Context) (string, bool) {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return format, true
}

func sendFile(c *gin.Context, file *service.ExportFile, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Students godoc
// @Summary Export students grouped by class
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param search query string false "Search term"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/students/excel [get]
func (h *ExportHandler) Students(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	file, err := h.exports.Students(c.Request.Context(), c.Query("search"), format)
	sendFile(c, file, err)
}

// Teachers godoc
// @Summary Export teachers
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param search query string false "Search term"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Router /admin/teachers/excel [get]
func (h *ExportHandler) Teachers(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	file, err := h.exports.Teachers(c.Request.Context(), c.Query("search"), format)
	sendFile(c, file, err)
}

// Schedules godoc
// @Summary Export schedules grouped by class
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param teacher query string false "Teacher name"
// @Param class query string false "Class name"
// @Param subject query string false "Subject name"
// @Param day query string false "Day of week"
// @Param time query string false "Start or end time"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Router /admin/schedules/excel [get]
func (h *ExportHandler) Schedules(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	file, err := h.exports.Schedules(c.Request.Context(), scheduleFilter(c), format)
	sendFile(c, file, err)
}

// Subjects godoc
// @Summary Export subjects
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param search query string false "Search term"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Router /admin/subjects/excel [get]
func (h *ExportHandler) Subjects(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	file, err := h.exports.Subjects(c.Request.Context(), c.Query("search"), format)
	sendFile(c, file, err)
}

// SubjectReport godoc
// @Summary Grades and attendance of a class in one subject
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param class_id path int true "Class ID"
// @Param subject_id path int true "Subject ID"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/classes/{class_id}/subjects/{subject_id}/report [get]
func (h *ExportHandler) SubjectReport(c *gin.Context) {
	principal, classID, ok := classRequest(c)
	if !ok {
		return
	}
	subjectID, ok := pathID(c, "subject_id")
	if !ok {
		return
	}
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	file, err := h.exports.SubjectReport(c.Request.Context(), principal, classID, subjectID, format)
	sendFile(c, file, err)
}

// TeacherSchedule godoc
// @Summary Export own schedule
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Router /teacher/my_schedule/export [get]
func (h *ExportHandler) TeacherSchedule(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	file, err := h.exports.TeacherSchedule(c.Request.Context(), principal, format)
	sendFile(c, file, err)
}

// MyClass godoc
// @Summary Export the homeroom class workbook
// @Description One workbook with schedule, grades, attendance and student sheets
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /teacher/my_class/export [get]
func (h *ExportHandler) MyClass(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	file, err := h.exports.MyClassReport(c.Request.Context(), principal)
	sendFile(c, file, err)
}
