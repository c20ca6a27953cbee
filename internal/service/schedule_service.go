package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

const timeLayout = "15:04"

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error)
	FindByID(ctx context.Context, id int64) (*models.ScheduleRecord, error)
	FindConflict(ctx context.Context, candidate models.Schedule, excludeID int64) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

type teacherChecker interface {
	Exists(ctx context.Context, teacherID int64) (bool, error)
}

// ScheduleService manages lesson slots and keeps a teacher's lessons on one day from overlapping.
type ScheduleService struct {
	repo      scheduleRepository
	classes   classReader
	subjects  subjectReader
	teachers  teacherChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, classes classReader, subjects subjectReader, teachers teacherChecker, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		classes:   classes,
		subjects:  subjects,
		teachers:  teachers,
		validator: registerValidations(validate),
		logger:    logger,
	}
}

// List returns schedules matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error) {
	schedules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list schedules")
	}
	return schedules, nil
}

// Get returns one schedule.
func (s *ScheduleService) Get(ctx context.Context, id int64) (*models.ScheduleRecord, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "schedule")
	}
	return schedule, nil
}

// Create inserts a lesson after validating its references, time range and overlap.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid schedule payload")
	}
	schedule := models.Schedule{
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
		DayOfWeek: canonicalDay(req.DayOfWeek),
		StartTime: normalizeTime(req.StartTime),
		EndTime:   normalizeTime(req.EndTime),
	}
	if err := validateRange(schedule); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, &schedule.ClassID, &schedule.SubjectID, &schedule.TeacherID); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, schedule, 0); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &schedule); err != nil {
		return nil, writeError(err, "failed to create schedule")
	}
	s.logger.Info("schedule created", zap.Int64("schedule_id", schedule.ID), zap.Int64("teacher_id", schedule.TeacherID))
	return &schedule, nil
}

// Patch applies the present fields of req. An overlap leaves the row untouched.
func (s *ScheduleService) Patch(ctx context.Context, id int64, req dto.PatchScheduleRequest) (*dto.UpdateResult, error) {
	if req.Empty() {
		return nil, appErrors.ErrNoFieldsToUpdate
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid schedule payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "schedule")
	}
	if err := s.checkReferences(ctx, req.ClassID, req.SubjectID, req.TeacherID); err != nil {
		return nil, err
	}

	next := current.Schedule
	fields := make(map[string]interface{})
	var updated []string
	set := func(column string, value interface{}) {
		fields[column] = value
		updated = append(updated, column)
	}
	if req.ClassID != nil {
		next.ClassID = *req.ClassID
		set("class_id", next.ClassID)
	}
	if req.SubjectID != nil {
		next.SubjectID = *req.SubjectID
		set("subject_id", next.SubjectID)
	}
	if req.TeacherID != nil {
		next.TeacherID = *req.TeacherID
		set("teacher_id", next.TeacherID)
	}
	if req.DayOfWeek != nil {
		next.DayOfWeek = canonicalDay(*req.DayOfWeek)
		set("day_of_week", next.DayOfWeek)
	}
	if req.StartTime != nil {
		next.StartTime = normalizeTime(*req.StartTime)
		set("start_time", next.StartTime)
	}
	if req.EndTime != nil {
		next.EndTime = normalizeTime(*req.EndTime)
		set("end_time", next.EndTime)
	}

	if req.StartTime != nil || req.EndTime != nil {
		if err := validateRange(next); err != nil {
			return nil, err
		}
	}
	if req.TeacherID != nil || req.DayOfWeek != nil || req.StartTime != nil || req.EndTime != nil {
		if err := s.checkConflict(ctx, next, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, writeError(err, "failed to update schedule")
	}
	s.logger.Info("schedule updated", zap.Int64("schedule_id", id), zap.Strings("fields", updated))
	return &dto.UpdateResult{Message: "schedule updated", ID: id, UpdatedFields: updated}, nil
}

// Delete removes a lesson.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete schedule")
	}
	s.logger.Info("schedule deleted", zap.Int64("schedule_id", id))
	return nil
}

func (s *ScheduleService) checkReferences(ctx context.Context, classID, subjectID, teacherID *int64) error {
	if classID != nil {
		if _, err := s.classes.FindByID(ctx, *classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return badRequest("class not found")
			}
			return appErrors.Internal(err, "failed to load class")
		}
	}
	if subjectID != nil {
		if _, err := s.subjects.FindByID(ctx, *subjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return badRequest("subject not found")
			}
			return appErrors.Internal(err, "failed to load subject")
		}
	}
	if teacherID != nil {
		found, err := s.teachers.Exists(ctx, *teacherID)
		if err != nil {
			return appErrors.Internal(err, "failed to load teacher")
		}
		if !found {
			return badRequest("teacher not found")
		}
	}
	return nil
}

func (s *ScheduleService) checkConflict(ctx context.Context, candidate models.Schedule, excludeID int64) error {
	conflict, err := s.repo.FindConflict(ctx, candidate, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check schedule overlap")
	}
	if conflict != nil {
		return badRequest(fmt.Sprintf("teacher already has a lesson on %s %s-%s (schedule %d)",
			conflict.DayOfWeek, conflict.StartTime, conflict.EndTime, conflict.ID))
	}
	return nil
}

func validateRange(schedule models.Schedule) error {
	if schedule.EndTime <= schedule.StartTime {
		return badRequest("end_time must be after start_time")
	}
	return nil
}

// normalizeTime pads an already validated time to HH:MM so lexical comparison matches time order.
func normalizeTime(raw string) string {
	t, err := time.Parse(timeLayout, strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return t.Format(timeLayout)
}

// canonicalDay returns the day name as spelled in the weekday list.
func canonicalDay(day string) string {
	order := models.DayOrder(day)
	days := models.Weekdays()
	if order > len(days) {
		return strings.TrimSpace(day)
	}
	return days[order-1]
}

// sortSchedule orders lessons by day of week then start time.
func sortSchedule(items []models.ScheduleRecord) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := models.DayOrder(items[i].DayOfWeek), models.DayOrder(items[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return items[i].StartTime < items[j].StartTime
	})
}
