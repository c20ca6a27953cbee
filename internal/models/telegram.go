package models

import "time"

// TelegramSession maps a Telegram account to a logged in user.
type TelegramSession struct {
	TelegramID int64     `db:"telegram_id" json:"telegram_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Role       Role      `db:"role" json:"role"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
