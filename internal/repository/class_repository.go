package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

// ClassRepository provides persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns every class ordered by name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	classes := make([]models.Class, 0)
	if err := r.db.SelectContext(ctx, &classes, "SELECT class_id, class_name, teacher_id FROM classes ORDER BY class_name"); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID fetches a class.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	var class models.Class
	if err := r.db.GetContext(ctx, &class, "SELECT class_id, class_name, teacher_id FROM classes WHERE class_id = $1", id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ExistsByName checks whether a class name is taken.
func (r *ClassRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var found int
	if err := r.db.GetContext(ctx, &found, "SELECT 1 FROM classes WHERE LOWER(class_name) = LOWER($1) LIMIT 1", name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check class name: %w", err)
	}
	return true, nil
}

// ListByHomeroomTeacher returns the classes led by teacherID.
func (r *ClassRepository) ListByHomeroomTeacher(ctx context.Context, teacherID int64) ([]models.Class, error) {
	classes := make([]models.Class, 0)
	const query = "SELECT class_id, class_name, teacher_id FROM classes WHERE teacher_id = $1 ORDER BY class_name"
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list homeroom classes: %w", err)
	}
	return classes, nil
}

// ListScheduledForTeacher returns the distinct classes appearing in a teacher's schedule.
func (r *ClassRepository) ListScheduledForTeacher(ctx context.Context, teacherID int64) ([]models.Class, error) {
	classes := make([]models.Class, 0)
	const query = `SELECT DISTINCT c.class_id, c.class_name, c.teacher_id
        FROM classes c JOIN schedules sc ON sc.class_id = c.class_id
        WHERE sc.teacher_id = $1 ORDER BY c.class_name`
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher classes: %w", err)
	}
	return classes, nil
}

// HasSchedules reports whether any lesson is planned for the class.
func (r *ClassRepository) HasSchedules(ctx context.Context, classID int64) (bool, error) {
	var found bool
	if err := r.db.GetContext(ctx, &found, "SELECT EXISTS (SELECT 1 FROM schedules WHERE class_id = $1)", classID); err != nil {
		return false, fmt.Errorf("check class schedules: %w", err)
	}
	return found, nil
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = "INSERT INTO classes (class_name, teacher_id) VALUES ($1, $2) RETURNING class_id"
		if err := tx.GetContext(ctx, &class.ID, query, class.Name, class.TeacherID); err != nil {
			return fmt.Errorf("create class: %w", err)
		}
		return nil
	})
}

// Delete removes a class; its homework cascades.
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM classes WHERE class_id = $1", id); err != nil {
			return fmt.Errorf("delete class: %w", err)
		}
		return nil
	})
}
