package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

// HomeworkRepository provides persistence for homework.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository creates a new homework repository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// ListByClass returns the homework of a class ordered by due date.
func (r *HomeworkRepository) ListByClass(ctx context.Context, classID int64) ([]models.Homework, error) {
	const query = `SELECT h.homework_id, h.subject_id, h.class_id, h.task, h.due_date, s.subject_name
        FROM homework h JOIN subjects s ON s.subject_id = h.subject_id
        WHERE h.class_id = $1 ORDER BY h.due_date, h.homework_id`
	items := make([]models.Homework, 0)
	if err := r.db.SelectContext(ctx, &items, query, classID); err != nil {
		return nil, fmt.Errorf("list homework: %w", err)
	}
	return items, nil
}

// Create inserts a homework task.
func (r *HomeworkRepository) Create(ctx context.Context, item *models.Homework) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO homework (subject_id, class_id, task, due_date) VALUES ($1, $2, $3, $4) RETURNING homework_id`
		if err := tx.GetContext(ctx, &item.ID, query, item.SubjectID, item.ClassID, item.Task, item.DueDate); err != nil {
			return fmt.Errorf("create homework: %w", err)
		}
		return nil
	})
}
