package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, search string) ([]models.StudentRecord, error)
	Get(ctx context.Context, studentID int64) (*dto.StudentDetail, error)
	Create(ctx context.Context, req dto.CreateStudentRequest) (*dto.StudentCreated, error)
	Patch(ctx context.Context, studentID int64, req dto.PatchStudentRequest) (*dto.UpdateResult, error)
	Delete(ctx context.Context, studentID int64) error
}

// StudentHandler exposes admin student endpoints.
type StudentHandler struct {
	students studentService
	images   ImageStore
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, images ImageStore) *StudentHandler {
	return &StudentHandler{students: students, images: images}
}

// List godoc
// @Summary List students
// @Tags Admin Students
// @Produce json
// @Param search query string false "Search by name, username or class"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Get student detail
// @Tags Admin Students
// @Produce json
// @Param id path int true "Student number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/student/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Admin Students
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /admin/student [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	picture, ok := bindForm(c, &req, h.images)
	if !ok {
		return
	}
	req.ProfilePicture = picture
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		discardPicture(h.images, picture)
		response.Error(c, err)
		return
	}
	response.Created(c, "student created", gin.H{"student": student})
}

// Patch godoc
// @Summary Update student fields
// @Tags Admin Students
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Student number"
// @Param payload body dto.PatchStudentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/student/{id} [patch]
func (h *StudentHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PatchStudentRequest
	picture, ok := bindForm(c, &req, h.images)
	if !ok {
		return
	}
	req.ProfilePicture = picture
	result, err := h.students.Patch(c.Request.Context(), id, req)
	if err != nil {
		discardPicture(h.images, picture)
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Admin Students
// @Produce json
// @Param id path int true "Student number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/student/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "student deleted", nil)
}
