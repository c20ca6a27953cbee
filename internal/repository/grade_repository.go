package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

const gradeSelect = `SELECT g.grade_id, g.student_id, g.subject_id, g.grade, g.date, s.subject_name,
        TRIM(u.first_name || ' ' || u.last_name) AS student_name
        FROM grades g
        JOIN subjects s ON s.subject_id = g.subject_id
        JOIN students st ON st.user_id = g.student_id
        JOIN users u ON u.user_id = st.user_id`

// GradeRepository provides persistence for grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grades matching the filter ordered by date.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	query := gradeSelect + " WHERE 1=1"
	var args []interface{}
	if len(filter.StudentIDs) > 0 {
		in, inArgs, err := sqlx.In(" AND g.student_id IN (?)", filter.StudentIDs)
		if err != nil {
			return nil, fmt.Errorf("build grade filter: %w", err)
		}
		query += in
		args = append(args, inArgs...)
	}
	if filter.SubjectID != nil {
		query += " AND g.subject_id = ?"
		args = append(args, *filter.SubjectID)
	}
	if filter.ClassID != nil {
		query += " AND st.class_id = ?"
		args = append(args, *filter.ClassID)
	}
	query += " ORDER BY g.date, g.grade_id"

	grades := make([]models.Grade, 0)
	if err := r.db.SelectContext(ctx, &grades, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID fetches a grade.
func (r *GradeRepository) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, gradeSelect+" WHERE g.grade_id = $1", id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO grades (student_id, subject_id, grade, date) VALUES ($1, $2, $3, $4) RETURNING grade_id`
		if err := tx.GetContext(ctx, &grade.ID, query, grade.StudentID, grade.SubjectID, grade.Grade, grade.Date); err != nil {
			return fmt.Errorf("create grade: %w", err)
		}
		return nil
	})
}

// Update applies column changes to a grade.
func (r *GradeRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateColumns(ctx, tx, "grades", "grade_id", id, fields)
	})
}

// Delete removes a grade.
func (r *GradeRepository) Delete(ctx context.Context, id int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM grades WHERE grade_id = $1", id); err != nil {
			return fmt.Errorf("delete grade: %w", err)
		}
		return nil
	})
}
