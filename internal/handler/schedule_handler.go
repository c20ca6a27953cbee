package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error)
	Get(ctx context.Context, id int64) (*models.ScheduleRecord, error)
	Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error)
	Patch(ctx context.Context, id int64, req dto.PatchScheduleRequest) (*dto.UpdateResult, error)
	Delete(ctx context.Context, id int64) error
}

// ScheduleHandler exposes admin schedule endpoints.
type ScheduleHandler struct {
	schedules scheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// scheduleFilter reads the teacher, class, subject, day and time query filters.
func scheduleFilter(c *gin.Context) models.ScheduleFilter {
	return models.ScheduleFilter{
		Teacher: strings.TrimSpace(c.Query("teacher")),
		Class:   strings.TrimSpace(c.Query("class")),
		Subject: strings.TrimSpace(c.Query("subject")),
		Day:     strings.TrimSpace(c.Query("day")),
		Time:    strings.TrimSpace(c.Query("time")),
	}
}

// List godoc
// @Summary List schedules
// @Tags Admin Schedules
// @Produce json
// @Param teacher query string false "Teacher name"
// @Param class query string false "Class name"
// @Param subject query string false "Subject name"
// @Param day query string false "Day of week"
// @Param time query string false "Start or end time"
// @Success 200 {object} response.Envelope
// @Router /admin/schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	schedules, err := h.schedules.List(c.Request.Context(), scheduleFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Get godoc
// @Summary Get schedule
// @Tags Admin Schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/schedule/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	schedule, err := h.schedules.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create schedule
// @Tags Admin Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/schedule [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "schedule created", schedule)
}

// Patch godoc
// @Summary Update schedule fields
// @Tags Admin Schedules
// @Accept json
// @Produce json
// @Param id path int true "Schedule ID"
// @Param payload body dto.PatchScheduleRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/schedule/{id} [patch]
func (h *ScheduleHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PatchScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.schedules.Patch(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete schedule
// @Tags Admin Schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/schedule/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "schedule deleted", nil)
}
