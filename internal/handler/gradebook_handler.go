package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type gradebookService interface {
	ClassGrades(ctx context.Context, p *models.Principal, classID int64) ([]models.Grade, error)
	CreateGrade(ctx context.Context, p *models.Principal, req dto.CreateGradeRequest) (*models.Grade, error)
	UpdateGrade(ctx context.Context, p *models.Principal, gradeID int64, req dto.UpdateGradeRequest) (*dto.UpdateResult, error)
	DeleteGrade(ctx context.Context, p *models.Principal, gradeID int64) error
	ClassHomework(ctx context.Context, p *models.Principal, classID int64) ([]models.Homework, error)
	CreateHomework(ctx context.Context, p *models.Principal, req dto.CreateHomeworkRequest) (*models.Homework, error)
	ClassAttendance(ctx context.Context, p *models.Principal, classID int64) ([]models.Attendance, error)
	CreateAttendance(ctx context.Context, p *models.Principal, req dto.CreateAttendanceRequest) (*models.Attendance, error)
	UpdateAttendance(ctx context.Context, p *models.Principal, id int64, req dto.UpdateAttendanceRequest) (*dto.UpdateResult, error)
}

// GradebookHandler exposes teacher grade, homework and attendance endpoints.
type GradebookHandler struct {
	gradebook gradebookService
}

// NewGradebookHandler constructs GradebookHandler.
func NewGradebookHandler(gradebook gradebookService) *GradebookHandler {
	return &GradebookHandler{gradebook: gradebook}
}

// classRequest resolves the principal and a class path parameter.
func classRequest(c *gin.Context) (*models.Principal, int64, bool) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return nil, 0, false
	}
	classID, ok := pathID(c, "class_id")
	return principal, classID, ok
}

// ListGrades godoc
// @Summary Grades of a class
// @Tags Teacher Gradebook
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/grades/{class_id} [get]
func (h *GradebookHandler) ListGrades(c *gin.Context) {
	principal, classID, ok := classRequest(c)
	if !ok {
		return
	}
	grades, err := h.gradebook.ClassGrades(c.Request.Context(), principal, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// CreateGrade godoc
// @Summary Add grade
// @Tags Teacher Gradebook
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/grades [post]
func (h *GradebookHandler) CreateGrade(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	grade, err := h.gradebook.CreateGrade(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "grade created", grade)
}

// UpdateGrade godoc
// @Summary Update grade
// @Tags Teacher Gradebook
// @Accept json
// @Produce json
// @Param grade_id path int true "Grade ID"
// @Param payload body dto.UpdateGradeRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/grades/{grade_id} [put]
func (h *GradebookHandler) UpdateGrade(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	gradeID, ok := pathID(c, "grade_id")
	if !ok {
		return
	}
	var req dto.UpdateGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.gradebook.UpdateGrade(c.Request.Context(), principal, gradeID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteGrade godoc
// @Summary Delete grade
// @Tags Teacher Gradebook
// @Produce json
// @Param grade_id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/grades/{grade_id} [delete]
func (h *GradebookHandler) DeleteGrade(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	gradeID, ok := pathID(c, "grade_id")
	if !ok {
		return
	}
	if err := h.gradebook.DeleteGrade(c.Request.Context(), principal, gradeID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "grade deleted", nil)
}

// ListHomework godoc
// @Summary Homework of a class
// @Tags Teacher Gradebook
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/homework/{class_id} [get]
func (h *GradebookHandler) ListHomework(c *gin.Context) {
	principal, classID, ok := classRequest(c)
	if !ok {
		return
	}
	items, err := h.gradebook.ClassHomework(c.Request.Context(), principal, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateHomework godoc
// @Summary Assign homework
// @Tags Teacher Gradebook
// @Accept json
// @Produce json
// @Param payload body dto.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/homework [post]
func (h *GradebookHandler) CreateHomework(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateHomeworkRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.gradebook.CreateHomework(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "homework created", item)
}

// ListAttendance godoc
// @Summary Attendance of a class
// @Tags Teacher Gradebook
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/attendance/{class_id} [get]
func (h *GradebookHandler) ListAttendance(c *gin.Context) {
	principal, classID, ok := classRequest(c)
	if !ok {
		return
	}
	records, err := h.gradebook.ClassAttendance(c.Request.Context(), principal, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// CreateAttendance godoc
// @Summary Mark attendance
// @Tags Teacher Gradebook
// @Accept json
// @Produce json
// @Param payload body dto.CreateAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/attendance [post]
func (h *GradebookHandler) CreateAttendance(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.gradebook.CreateAttendance(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "attendance created", record)
}

// UpdateAttendance godoc
// @Summary Update attendance mark
// @Tags Teacher Gradebook
// @Accept json
// @Produce json
// @Param attendance_id path int true "Attendance ID"
// @Param payload body dto.UpdateAttendanceRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/attendance/{attendance_id} [put]
func (h *GradebookHandler) UpdateAttendance(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "attendance_id")
	if !ok {
		return
	}
	var req dto.UpdateAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.gradebook.UpdateAttendance(c.Request.Context(), principal, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
