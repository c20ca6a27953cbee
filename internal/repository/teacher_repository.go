package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

const teacherSelect = `SELECT ` + userColumns + `, t.teacher_id
        FROM teachers t
        JOIN users u ON u.user_id = t.user_id`

// TeacherRepository manages teachers, their position assignments and subject links.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers whose name, username or email matches search.
func (r *TeacherRepository) List(ctx context.Context, search string) ([]models.TeacherRecord, error) {
	query := teacherSelect + " WHERE 1=1"
	var args []interface{}
	if search != "" {
		args = append(args, likePattern(search))
		query += ` AND (LOWER(u.first_name) LIKE $1 OR LOWER(u.last_name) LIKE $1
        OR LOWER(u.first_name || ' ' || u.last_name) LIKE $1 OR LOWER(u.username) LIKE $1
        OR LOWER(COALESCE(u.email, '')) LIKE $1)`
	}
	query += " ORDER BY u.last_name, u.first_name"

	teachers := make([]models.TeacherRecord, 0)
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ListFree returns teachers that lead no class.
func (r *TeacherRepository) ListFree(ctx context.Context) ([]models.TeacherRecord, error) {
	query := teacherSelect + ` WHERE NOT EXISTS (SELECT 1 FROM classes c WHERE c.teacher_id = t.teacher_id)
        ORDER BY u.last_name, u.first_name`
	teachers := make([]models.TeacherRecord, 0)
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list free teachers: %w", err)
	}
	return teachers, nil
}

// FindByTeacherID fetches a teacher by business number.
func (r *TeacherRepository) FindByTeacherID(ctx context.Context, teacherID int64) (*models.TeacherRecord, error) {
	var teacher models.TeacherRecord
	if err := r.db.GetContext(ctx, &teacher, teacherSelect+" WHERE t.teacher_id = $1", teacherID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Exists reports whether a teacher number is in use.
func (r *TeacherRepository) Exists(ctx context.Context, teacherID int64) (bool, error) {
	var found int
	if err := r.db.GetContext(ctx, &found, "SELECT 1 FROM teachers WHERE teacher_id = $1", teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check teacher: %w", err)
	}
	return true, nil
}

// Assignments returns each position assignment of a teacher with its linked subjects, one row per
// subject. Assignments without subjects yield a single row with null subject columns.
func (r *TeacherRepository) Assignments(ctx context.Context, teacherID int64) ([]models.AssignedSubject, error) {
	const query = `SELECT a.assignment_id, a.position_id, p.position_name, l.subject_id, s.subject_name
        FROM teacher_position_assignments a
        JOIN teacher_positions p ON p.position_id = a.position_id
        LEFT JOIN teacher_subject_links l ON l.assignment_id = a.assignment_id
        LEFT JOIN subjects s ON s.subject_id = l.subject_id
        WHERE a.teacher_id = $1
        ORDER BY a.assignment_id, s.subject_name`
	rows := make([]models.AssignedSubject, 0)
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return rows, nil
}

// HasSchedules reports whether any lesson references the teacher.
func (r *TeacherRepository) HasSchedules(ctx context.Context, teacherID int64) (bool, error) {
	var found bool
	if err := r.db.GetContext(ctx, &found, "SELECT EXISTS (SELECT 1 FROM schedules WHERE teacher_id = $1)", teacherID); err != nil {
		return false, fmt.Errorf("check teacher schedules: %w", err)
	}
	return found, nil
}

// Create inserts the user, teacher, position assignment, subject links and homeroom in one
// transaction. A nil or zero classID leaves the teacher without a homeroom class.
func (r *TeacherRepository) Create(ctx context.Context, user *models.User, teacher *models.Teacher, positionID int64, subjectIDs []int64, classID *int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		next, err := nextNumber(ctx, tx, "teachers", "teacher_id")
		if err != nil {
			return err
		}
		teacher.UserID, teacher.TeacherID = user.ID, next
		if _, err := tx.ExecContext(ctx, "INSERT INTO teachers (user_id, teacher_id) VALUES ($1, $2)", teacher.UserID, teacher.TeacherID); err != nil {
			return fmt.Errorf("create teacher: %w", err)
		}
		if err := replaceAssignment(ctx, tx, teacher.TeacherID, positionID, subjectIDs); err != nil {
			return err
		}
		if classID != nil && *classID > 0 {
			return setHomeroom(ctx, tx, teacher.TeacherID, *classID)
		}
		return nil
	})
}

// Update applies a teacher change set in one transaction.
func (r *TeacherRepository) Update(ctx context.Context, teacher models.Teacher, change models.TeacherUpdate) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := updateColumns(ctx, tx, "users", "user_id", teacher.UserID, change.User); err != nil {
			return err
		}
		if change.ClassID != nil {
			if err := setHomeroom(ctx, tx, teacher.TeacherID, *change.ClassID); err != nil {
				return err
			}
		}
		switch {
		case change.PositionID != nil:
			return replaceAssignment(ctx, tx, teacher.TeacherID, *change.PositionID, change.SubjectIDs)
		case change.SubjectIDs != nil:
			return replaceLinks(ctx, tx, teacher.TeacherID, change.SubjectIDs)
		}
		return nil
	})
}

// Delete removes the teacher's assignments, links and user row.
func (r *TeacherRepository) Delete(ctx context.Context, teacher models.Teacher) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := deleteAssignments(ctx, tx, teacher.TeacherID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE user_id = $1", teacher.UserID); err != nil {
			return fmt.Errorf("delete teacher: %w", err)
		}
		return nil
	})
}

func deleteAssignments(ctx context.Context, tx *sqlx.Tx, teacherID int64) error {
	const links = `DELETE FROM teacher_subject_links WHERE assignment_id IN
        (SELECT assignment_id FROM teacher_position_assignments WHERE teacher_id = $1)`
	if _, err := tx.ExecContext(ctx, links, teacherID); err != nil {
		return fmt.Errorf("delete subject links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM teacher_position_assignments WHERE teacher_id = $1", teacherID); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}
	return nil
}

func replaceAssignment(ctx context.Context, tx *sqlx.Tx, teacherID, positionID int64, subjectIDs []int64) error {
	if err := deleteAssignments(ctx, tx, teacherID); err != nil {
		return err
	}
	var assignmentID int64
	const query = `INSERT INTO teacher_position_assignments (teacher_id, position_id) VALUES ($1, $2) RETURNING assignment_id`
	if err := tx.GetContext(ctx, &assignmentID, query, teacherID, positionID); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return insertLinks(ctx, tx, assignmentID, subjectIDs)
}

func replaceLinks(ctx context.Context, tx *sqlx.Tx, teacherID int64, subjectIDs []int64) error {
	var assignmentID int64
	const query = `SELECT assignment_id FROM teacher_position_assignments WHERE teacher_id = $1
        ORDER BY assignment_id DESC LIMIT 1`
	if err := tx.GetContext(ctx, &assignmentID, query, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load assignment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM teacher_subject_links WHERE assignment_id = $1", assignmentID); err != nil {
		return fmt.Errorf("delete subject links: %w", err)
	}
	return insertLinks(ctx, tx, assignmentID, subjectIDs)
}

func insertLinks(ctx context.Context, tx *sqlx.Tx, assignmentID int64, subjectIDs []int64) error {
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO teacher_subject_links (assignment_id, subject_id) VALUES ($1, $2)", assignmentID, subjectID); err != nil {
			return fmt.Errorf("link subject %d: %w", subjectID, err)
		}
	}
	return nil
}

// setHomeroom makes the teacher lead classID only; classID 0 clears the homeroom.
func setHomeroom(ctx context.Context, tx *sqlx.Tx, teacherID, classID int64) error {
	if _, err := tx.ExecContext(ctx, "UPDATE classes SET teacher_id = NULL WHERE teacher_id = $1", teacherID); err != nil {
		return fmt.Errorf("clear homeroom: %w", err)
	}
	if classID == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "UPDATE classes SET teacher_id = $1 WHERE class_id = $2", teacherID, classID); err != nil {
		return fmt.Errorf("set homeroom: %w", err)
	}
	return nil
}
