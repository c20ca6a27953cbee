package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, search string) ([]dto.TeacherSummary, error)
	Get(ctx context.Context, teacherID int64) (*dto.TeacherDetail, error)
	Create(ctx context.Context, req dto.CreateTeacherRequest) (*dto.TeacherCreated, error)
	Patch(ctx context.Context, teacherID int64, req dto.PatchTeacherRequest) (*dto.UpdateResult, error)
	Delete(ctx context.Context, teacherID int64) error
	ListPositions(ctx context.Context) ([]models.Position, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
}

// TeacherHandler exposes admin teacher endpoints and the reference lists used by admin forms.
type TeacherHandler struct {
	teachers teacherService
	images   ImageStore
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(teachers teacherService, images ImageStore) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, images: images}
}

// List godoc
// @Summary List teachers
// @Tags Admin Teachers
// @Produce json
// @Param search query string false "Search by name, username or email"
// @Success 200 {object} response.Envelope
// @Router /admin/teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Get godoc
// @Summary Get teacher detail
// @Tags Admin Teachers
// @Produce json
// @Param id path int true "Teacher number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/teacher/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Admin Teachers
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /admin/teacher [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req dto.CreateTeacherRequest
	picture, ok := bindForm(c, &req, h.images)
	if !ok {
		return
	}
	req.ProfilePicture = picture
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		discardPicture(h.images, picture)
		response.Error(c, err)
		return
	}
	response.Created(c, "teacher created", gin.H{"teacher": teacher})
}

// Patch godoc
// @Summary Update teacher fields
// @Description class_id 0 clears the homeroom class; position_id replaces the position and its subjects
// @Tags Admin Teachers
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Teacher number"
// @Param payload body dto.PatchTeacherRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/teacher/{id} [patch]
func (h *TeacherHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PatchTeacherRequest
	picture, ok := bindForm(c, &req, h.images)
	if !ok {
		return
	}
	req.ProfilePicture = picture
	result, err := h.teachers.Patch(c.Request.Context(), id, req)
	if err != nil {
		discardPicture(h.images, picture)
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete teacher
// @Tags Admin Teachers
// @Produce json
// @Param id path int true "Teacher number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/teacher/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.teachers.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "teacher deleted", nil)
}

// ListPositions godoc
// @Summary List teacher positions
// @Tags Admin Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/positions [get]
func (h *TeacherHandler) ListPositions(c *gin.Context) {
	positions, err := h.teachers.ListPositions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, positions, nil)
}

// ListClasses godoc
// @Summary List classes
// @Tags Admin Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/classes [get]
func (h *TeacherHandler) ListClasses(c *gin.Context) {
	classes, err := h.teachers.ListClasses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}
