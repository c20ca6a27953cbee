package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type classService interface {
	ListForTeacher(ctx context.Context, p *models.Principal) ([]models.Class, error)
	Create(ctx context.Context, p *models.Principal, req dto.CreateClassRequest) (*models.Class, error)
	Delete(ctx context.Context, p *models.Principal, classID int64) error
	FreeTeachers(ctx context.Context, p *models.Principal) ([]models.TeacherRecord, error)
	SubjectsForClass(ctx context.Context, p *models.Principal, classID int64) ([]models.Subject, error)
	MyClass(ctx context.Context, p *models.Principal) (*dto.MyClass, error)
	TeacherSchedule(ctx context.Context, p *models.Principal) ([]models.ScheduleRecord, error)
}

// ClassHandler serves the teacher workspace: classes, homeroom view and own schedule.
type ClassHandler struct {
	classes classService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes classService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// Schedule godoc
// @Summary Own schedule
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/schedule [get]
func (h *ClassHandler) Schedule(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	schedule, err := h.classes.TeacherSchedule(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// List godoc
// @Summary Classes of the teacher
// @Description Head teachers see every class
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	classes, err := h.classes.ListForTeacher(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Create godoc
// @Summary Create class
// @Description Head teacher only
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req dto.CreateClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.classes.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "class created", class)
}

// Delete godoc
// @Summary Delete class
// @Description Head teacher only; refused while students are enrolled or lessons are scheduled
// @Tags Teacher
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/classes/{class_id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "class_id")
	if !ok {
		return
	}
	if err := h.classes.Delete(c.Request.Context(), principal, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "class deleted", nil)
}

// FreeTeachers godoc
// @Summary Teachers without a homeroom class
// @Description Head teacher only
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/teachers/free [get]
func (h *ClassHandler) FreeTeachers(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	teachers, err := h.classes.FreeTeachers(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Subjects godoc
// @Summary Subjects of a class
// @Tags Teacher
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/classes/{class_id}/subjects [get]
func (h *ClassHandler) Subjects(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	classID, ok := pathID(c, "class_id")
	if !ok {
		return
	}
	subjects, err := h.classes.SubjectsForClass(c.Request.Context(), principal, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// MyClass godoc
// @Summary Homeroom class view
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/my_class [get]
func (h *ClassHandler) MyClass(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	view, err := h.classes.MyClass(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
