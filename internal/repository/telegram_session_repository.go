package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

// TelegramSessionRepository stores which user a Telegram account is logged in as.
type TelegramSessionRepository struct {
	db *sqlx.DB
}

// NewTelegramSessionRepository creates a new telegram session repository.
func NewTelegramSessionRepository(db *sqlx.DB) *TelegramSessionRepository {
	return &TelegramSessionRepository{db: db}
}

// Find returns the session of a Telegram account.
func (r *TelegramSessionRepository) Find(ctx context.Context, telegramID int64) (*models.TelegramSession, error) {
	var session models.TelegramSession
	const query = "SELECT telegram_id, user_id, role, updated_at FROM telegram_sessions WHERE telegram_id = $1"
	if err := r.db.GetContext(ctx, &session, query, telegramID); err != nil {
		return nil, err
	}
	return &session, nil
}

// Save links a Telegram account to a user, replacing any earlier link.
func (r *TelegramSessionRepository) Save(ctx context.Context, session *models.TelegramSession) error {
	const query = `INSERT INTO telegram_sessions (telegram_id, user_id, role, updated_at) VALUES ($1, $2, $3, NOW())
        ON CONFLICT (telegram_id) DO UPDATE SET user_id = EXCLUDED.user_id, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
        RETURNING updated_at`
	if err := r.db.GetContext(ctx, &session.UpdatedAt, query, session.TelegramID, session.UserID, session.Role); err != nil {
		return fmt.Errorf("save telegram session: %w", err)
	}
	return nil
}

// Delete removes the link of a Telegram account.
func (r *TelegramSessionRepository) Delete(ctx context.Context, telegramID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM telegram_sessions WHERE telegram_id = $1", telegramID); err != nil {
		return fmt.Errorf("delete telegram session: %w", err)
	}
	return nil
}
