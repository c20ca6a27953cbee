package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

const studentSelect = `SELECT ` + userColumns + `,
        s.student_id, s.class_id, c.class_name, s.birth_date, s.address
        FROM students s
        JOIN users u ON u.user_id = s.user_id
        LEFT JOIN classes c ON c.class_id = s.class_id`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters ordered by class and name. Search matches
// first name, last name, full name, username and class name case-insensitively.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error) {
	query := studentSelect + " WHERE 1=1"
	var args []interface{}

	if filter.ClassID != nil {
		args = append(args, *filter.ClassID)
		query += fmt.Sprintf(" AND s.class_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		n := len(args)
		query += fmt.Sprintf(` AND (LOWER(u.first_name) LIKE $%[1]d OR LOWER(u.last_name) LIKE $%[1]d
        OR LOWER(u.first_name || ' ' || u.last_name) LIKE $%[1]d OR LOWER(u.username) LIKE $%[1]d
        OR LOWER(COALESCE(c.class_name, '')) LIKE $%[1]d)`, n)
	}
	query += " ORDER BY c.class_name NULLS LAST, u.last_name, u.first_name"

	students := make([]models.StudentRecord, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByStudentID fetches a student by business number.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID int64) (*models.StudentRecord, error) {
	var student models.StudentRecord
	if err := r.db.GetContext(ctx, &student, studentSelect+" WHERE s.student_id = $1", studentID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID fetches a student by user id.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID int64) (*models.StudentRecord, error) {
	var student models.StudentRecord
	if err := r.db.GetContext(ctx, &student, studentSelect+" WHERE s.user_id = $1", userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// CountByClass returns how many students are enrolled in a class.
func (r *StudentRepository) CountByClass(ctx context.Context, classID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students WHERE class_id = $1", classID); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Create inserts the user and student rows in one transaction, assigning the next student number.
func (r *StudentRepository) Create(ctx context.Context, user *models.User, student *models.Student) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		next, err := nextNumber(ctx, tx, "students", "student_id")
		if err != nil {
			return err
		}
		student.UserID, student.StudentID = user.ID, next
		const query = `INSERT INTO students (user_id, student_id, class_id, birth_date, address)
        VALUES (:user_id, :student_id, :class_id, :birth_date, :address)`
		if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
			return fmt.Errorf("create student: %w", err)
		}
		return nil
	})
}

// Update applies user and student column changes in one transaction.
func (r *StudentRepository) Update(ctx context.Context, userID int64, userFields, studentFields map[string]interface{}) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := updateColumns(ctx, tx, "users", "user_id", userID, userFields); err != nil {
			return err
		}
		return updateColumns(ctx, tx, "students", "user_id", userID, studentFields)
	})
}

// Delete removes the student's user row; grades, attendance and the role row cascade.
func (r *StudentRepository) Delete(ctx context.Context, userID int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE user_id = $1", userID); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		return nil
	})
}
