package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

// SubjectRepository provides persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects whose name matches search, ordered by name.
func (r *SubjectRepository) List(ctx context.Context, search string) ([]models.Subject, error) {
	query := "SELECT subject_id, subject_name FROM subjects WHERE 1=1"
	var args []interface{}
	if search != "" {
		args = append(args, likePattern(search))
		query += " AND LOWER(subject_name) LIKE $1"
	}
	query += " ORDER BY subject_name"

	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID fetches a subject.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, "SELECT subject_id, subject_name FROM subjects WHERE subject_id = $1", id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// CountExisting returns how many of ids exist.
func (r *SubjectRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("SELECT COUNT(DISTINCT subject_id) FROM subjects WHERE subject_id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("build subject lookup: %w", err)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}

// ExistsByName checks whether a subject name is taken, optionally excluding one subject.
func (r *SubjectRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE LOWER(subject_name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID > 0 {
		query += " AND subject_id <> $2"
		args = append(args, excludeID)
	}
	var found int
	if err := r.db.GetContext(ctx, &found, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject name: %w", err)
	}
	return true, nil
}

// IsReferenced reports whether any grade or homework row points at the subject.
func (r *SubjectRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM grades WHERE subject_id = $1)
        OR EXISTS (SELECT 1 FROM homework WHERE subject_id = $1)`
	var referenced bool
	if err := r.db.GetContext(ctx, &referenced, query, id); err != nil {
		return false, fmt.Errorf("check subject references: %w", err)
	}
	return referenced, nil
}

// ListForClass returns the subjects scheduled in a class, optionally only those taught by teacherID.
func (r *SubjectRepository) ListForClass(ctx context.Context, classID int64, teacherID *int64) ([]models.Subject, error) {
	query := `SELECT DISTINCT s.subject_id, s.subject_name FROM subjects s
        JOIN schedules sc ON sc.subject_id = s.subject_id
        WHERE sc.class_id = $1`
	args := []interface{}{classID}
	if teacherID != nil {
		query += " AND sc.teacher_id = $2"
		args = append(args, *teacherID)
	}
	query += " ORDER BY s.subject_name"

	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return subjects, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &subject.ID, "INSERT INTO subjects (subject_name) VALUES ($1) RETURNING subject_id", subject.Name); err != nil {
			return fmt.Errorf("create subject: %w", err)
		}
		return nil
	})
}

// Rename changes a subject name.
func (r *SubjectRepository) Rename(ctx context.Context, id int64, name string) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateColumns(ctx, tx, "subjects", "subject_id", id, map[string]interface{}{"subject_name": name})
	})
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM subjects WHERE subject_id = $1", id); err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		return nil
	})
}
