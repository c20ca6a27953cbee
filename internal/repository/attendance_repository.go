package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

const attendanceSelect = `SELECT a.attendance_id, a.student_id, a.date, a.status,
        TRIM(u.first_name || ' ' || u.last_name) AS student_name
        FROM attendance a
        JOIN students st ON st.user_id = a.student_id
        JOIN users u ON u.user_id = st.user_id`

// AttendanceRepository provides persistence for attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByStudents returns attendance of the given students ordered by date.
func (r *AttendanceRepository) ListByStudents(ctx context.Context, studentIDs []int64) ([]models.Attendance, error) {
	records := make([]models.Attendance, 0)
	if len(studentIDs) == 0 {
		return records, nil
	}
	query, args, err := sqlx.In(attendanceSelect+" WHERE a.student_id IN (?) ORDER BY a.date, a.attendance_id", studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build attendance filter: %w", err)
	}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListByClass returns attendance of every student of a class ordered by date.
func (r *AttendanceRepository) ListByClass(ctx context.Context, classID int64) ([]models.Attendance, error) {
	records := make([]models.Attendance, 0)
	query := attendanceSelect + " WHERE st.class_id = $1 ORDER BY a.date, u.last_name, u.first_name"
	if err := r.db.SelectContext(ctx, &records, query, classID); err != nil {
		return nil, fmt.Errorf("list class attendance: %w", err)
	}
	return records, nil
}

// FindByID fetches an attendance mark.
func (r *AttendanceRepository) FindByID(ctx context.Context, id int64) (*models.Attendance, error) {
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, attendanceSelect+" WHERE a.attendance_id = $1", id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts an attendance mark.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO attendance (student_id, date, status) VALUES ($1, $2, $3) RETURNING attendance_id`
		if err := tx.GetContext(ctx, &record.ID, query, record.StudentID, record.Date, record.Status); err != nil {
			return fmt.Errorf("create attendance: %w", err)
		}
		return nil
	})
}

// Update applies column changes to an attendance mark.
func (r *AttendanceRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateColumns(ctx, tx, "attendance", "attendance_id", id, fields)
	})
}
