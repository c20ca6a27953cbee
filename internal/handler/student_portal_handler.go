package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type studentPortalService interface {
	Schedule(ctx context.Context, p *models.Principal) ([]models.ScheduleRecord, error)
	Subjects(ctx context.Context, p *models.Principal) ([]models.Subject, error)
	GradesAttendance(ctx context.Context, p *models.Principal, subjectID int64) (*dto.GradesAttendance, error)
	Homework(ctx context.Context, p *models.Principal) ([]models.Homework, error)
	Classmates(ctx context.Context, p *models.Principal) ([]models.StudentRecord, error)
}

// StudentPortalHandler serves the read-only student endpoints.
type StudentPortalHandler struct {
	portal studentPortalService
}

// NewStudentPortalHandler constructs StudentPortalHandler.
func NewStudentPortalHandler(portal studentPortalService) *StudentPortalHandler {
	return &StudentPortalHandler{portal: portal}
}

// Schedule godoc
// @Summary Class schedule of the student
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/schedule [get]
func (h *StudentPortalHandler) Schedule(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	schedule, err := h.portal.Schedule(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Subjects godoc
// @Summary Subjects taught in the student's class
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/subjects [get]
func (h *StudentPortalHandler) Subjects(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	subjects, err := h.portal.Subjects(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// GradesAttendance godoc
// @Summary Grades, attendance and average for one subject
// @Tags Student
// @Produce json
// @Param subject_id path int true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/grades_attendance/{subject_id} [get]
func (h *StudentPortalHandler) GradesAttendance(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	subjectID, ok := pathID(c, "subject_id")
	if !ok {
		return
	}
	result, err := h.portal.GradesAttendance(c.Request.Context(), principal, subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Homework godoc
// @Summary Homework of the student's class
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/homework [get]
func (h *StudentPortalHandler) Homework(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	items, err := h.portal.Homework(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Classmates godoc
// @Summary Students of the same class
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/classmates [get]
func (h *StudentPortalHandler) Classmates(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	classmates, err := h.portal.Classmates(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classmates, nil)
}
