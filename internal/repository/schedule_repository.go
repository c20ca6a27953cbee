package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

const scheduleSelect = `SELECT sc.schedule_id, sc.class_id, sc.subject_id, sc.teacher_id, sc.day_of_week, sc.start_time, sc.end_time,
        c.class_name, s.subject_name, TRIM(u.first_name || ' ' || u.last_name) AS teacher_name
        FROM schedules sc
        JOIN classes c ON c.class_id = sc.class_id
        JOIN subjects s ON s.subject_id = sc.subject_id
        JOIN teachers t ON t.teacher_id = sc.teacher_id
        JOIN users u ON u.user_id = t.user_id`

// ScheduleRepository provides persistence for schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules matching the filter. Text filters are case-insensitive substring matches;
// Time matches either the start or the end time.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error) {
	query := scheduleSelect + " WHERE 1=1"
	var args []interface{}
	like := func(expr, value string) {
		args = append(args, likePattern(value))
		query += fmt.Sprintf(" AND LOWER(%s) LIKE $%d", expr, len(args))
	}

	if filter.Teacher != "" {
		like("u.first_name || ' ' || u.last_name", filter.Teacher)
	}
	if filter.Class != "" {
		like("c.class_name", filter.Class)
	}
	if filter.Subject != "" {
		like("s.subject_name", filter.Subject)
	}
	if filter.Day != "" {
		like("sc.day_of_week", filter.Day)
	}
	if filter.Time != "" {
		args = append(args, likePattern(filter.Time))
		query += fmt.Sprintf(" AND (sc.start_time LIKE $%[1]d OR sc.end_time LIKE $%[1]d)", len(args))
	}
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		query += fmt.Sprintf(" AND sc.teacher_id = $%d", len(args))
	}
	if filter.ClassID != nil {
		args = append(args, *filter.ClassID)
		query += fmt.Sprintf(" AND sc.class_id = $%d", len(args))
	}
	query += " ORDER BY c.class_name, sc.day_of_week, sc.start_time"

	schedules := make([]models.ScheduleRecord, 0)
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FindByID fetches a schedule with its names.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.ScheduleRecord, error) {
	var schedule models.ScheduleRecord
	if err := r.db.GetContext(ctx, &schedule, scheduleSelect+" WHERE sc.schedule_id = $1", id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindConflict returns a lesson of the teacher on the same day whose [start, end) range intersects
// the candidate, ignoring excludeID. It returns nil when the slot is free.
func (r *ScheduleRepository) FindConflict(ctx context.Context, candidate models.Schedule, excludeID int64) (*models.Schedule, error) {
	const query = `SELECT schedule_id, class_id, subject_id, teacher_id, day_of_week, start_time, end_time
        FROM schedules
        WHERE teacher_id = $1 AND day_of_week = $2 AND start_time < $4 AND end_time > $3 AND schedule_id <> $5
        ORDER BY start_time LIMIT 1`
	var conflict models.Schedule
	err := r.db.GetContext(ctx, &conflict, query, candidate.TeacherID, candidate.DayOfWeek, candidate.StartTime, candidate.EndTime, excludeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("check schedule overlap: %w", err)
	}
	return &conflict, nil
}

// ExistsForTeacherClass reports whether the teacher has at least one lesson in the class.
func (r *ScheduleRepository) ExistsForTeacherClass(ctx context.Context, teacherID, classID int64) (bool, error) {
	var found bool
	const query = "SELECT EXISTS (SELECT 1 FROM schedules WHERE teacher_id = $1 AND class_id = $2)"
	if err := r.db.GetContext(ctx, &found, query, teacherID, classID); err != nil {
		return false, fmt.Errorf("check teacher class: %w", err)
	}
	return found, nil
}

// Create inserts a schedule.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO schedules (class_id, subject_id, teacher_id, day_of_week, start_time, end_time)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING schedule_id`
		err := tx.GetContext(ctx, &schedule.ID, query,
			schedule.ClassID, schedule.SubjectID, schedule.TeacherID, schedule.DayOfWeek, schedule.StartTime, schedule.EndTime)
		if err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}
		return nil
	})
}

// Update applies column changes to a schedule.
func (r *ScheduleRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateColumns(ctx, tx, "schedules", "schedule_id", id, fields)
	})
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE schedule_id = $1", id); err != nil {
			return fmt.Errorf("delete schedule: %w", err)
		}
		return nil
	})
}
