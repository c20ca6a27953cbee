package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

// PositionRepository reads the teacher position catalogue.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// List returns every position.
func (r *PositionRepository) List(ctx context.Context) ([]models.Position, error) {
	positions := make([]models.Position, 0)
	if err := r.db.SelectContext(ctx, &positions, "SELECT position_id, position_name FROM teacher_positions ORDER BY position_id"); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// FindByID fetches a position.
func (r *PositionRepository) FindByID(ctx context.Context, id int64) (*models.Position, error) {
	var position models.Position
	if err := r.db.GetContext(ctx, &position, "SELECT position_id, position_name FROM teacher_positions WHERE position_id = $1", id); err != nil {
		return nil, err
	}
	return &position, nil
}
