package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-diary-api/internal/models"
)

const userColumns = `u.user_id, u.username, u.password_hash, u.first_name, u.last_name, u.email, u.phone_number,
        u.profile_picture, u.api_key, u.created_at`

// UserRepository manages accounts and their role rows.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID fetches a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "u.user_id = $1", id)
}

// FindByUsername fetches a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "u.username = $1", username)
}

// FindByAPIKey fetches the owner of an API key.
func (r *UserRepository) FindByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	return r.findOne(ctx, "u.api_key = $1", apiKey)
}

func (r *UserRepository) findOne(ctx context.Context, condition string, arg interface{}) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users u WHERE %s", userColumns, condition)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsername checks username usage, optionally excluding one user.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

// ExistsByEmail checks email usage, optionally excluding one user.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *UserRepository) exists(ctx context.Context, column string, value interface{}, excludeID int64) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM users WHERE %s = $1", column)
	args := []interface{}{value}
	if excludeID > 0 {
		query += " AND user_id <> $2"
		args = append(args, excludeID)
	}
	var found int
	if err := r.db.GetContext(ctx, &found, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return true, nil
}

// Principal loads the role row of userID for role. It returns sql.ErrNoRows when the user does not
// carry the role. Teachers get the name of their most recent position, empty when unassigned.
func (r *UserRepository) Principal(ctx context.Context, userID int64, role models.Role) (*models.Principal, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	principal := &models.Principal{UserID: user.ID, Username: user.Username, Role: role}

	switch role {
	case models.RoleStudent:
		var row struct {
			StudentID int64         `db:"student_id"`
			ClassID   sql.NullInt64 `db:"class_id"`
		}
		if err := r.db.GetContext(ctx, &row, "SELECT student_id, class_id FROM students WHERE user_id = $1", userID); err != nil {
			return nil, err
		}
		principal.RoleID = row.StudentID
		if row.ClassID.Valid {
			classID := row.ClassID.Int64
			principal.ClassID = &classID
		}
	case models.RoleTeacher:
		if err := r.db.GetContext(ctx, &principal.RoleID, "SELECT teacher_id FROM teachers WHERE user_id = $1", userID); err != nil {
			return nil, err
		}
		const positionQuery = `SELECT p.position_name FROM teacher_position_assignments a
        JOIN teacher_positions p ON p.position_id = a.position_id
        WHERE a.teacher_id = $1 ORDER BY a.assignment_id DESC LIMIT 1`
		if err := r.db.GetContext(ctx, &principal.Position, positionQuery, principal.RoleID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load teacher position: %w", err)
		}
	case models.RoleAdmin:
		if err := r.db.GetContext(ctx, &principal.RoleID, "SELECT admin_id FROM admins WHERE user_id = $1", userID); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return principal, nil
}

// RoleOf returns the first role table containing userID, checking admin, teacher then student.
func (r *UserRepository) RoleOf(ctx context.Context, userID int64) (models.Role, error) {
	const query = `SELECT CASE
            WHEN EXISTS (SELECT 1 FROM admins WHERE user_id = $1) THEN 'admin'
            WHEN EXISTS (SELECT 1 FROM teachers WHERE user_id = $1) THEN 'teacher'
            WHEN EXISTS (SELECT 1 FROM students WHERE user_id = $1) THEN 'student'
            ELSE '' END`
	var role string
	if err := r.db.GetContext(ctx, &role, query, userID); err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	if role == "" {
		return "", sql.ErrNoRows
	}
	return models.Role(role), nil
}

// Update applies the provided column values to a user row.
func (r *UserRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateColumns(ctx, tx, "users", "user_id", id, fields)
	})
}

// SetAPIKey stores a new API key for a user.
func (r *UserRepository) SetAPIKey(ctx context.Context, id int64, apiKey string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET api_key = $1 WHERE user_id = $2", apiKey, id)
	if err != nil {
		return fmt.Errorf("set api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPasswordHash replaces the password hash of username.
func (r *UserRepository) SetPasswordHash(ctx context.Context, username, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = $1 WHERE username = $2", hash, username)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateAdmin inserts a user and its admin row in one transaction.
func (r *UserRepository) CreateAdmin(ctx context.Context, user *models.User) (*models.Admin, error) {
	admin := &models.Admin{}
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		next, err := nextNumber(ctx, tx, "admins", "admin_id")
		if err != nil {
			return err
		}
		admin.UserID, admin.AdminID = user.ID, next
		if _, err := tx.ExecContext(ctx, "INSERT INTO admins (user_id, admin_id) VALUES ($1, $2)", admin.UserID, admin.AdminID); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// insertUser writes a users row and fills the generated id and timestamp.
func insertUser(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	const query = `INSERT INTO users (username, password_hash, first_name, last_name, email, phone_number, profile_picture, api_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING user_id, created_at`
	row := tx.QueryRowxContext(ctx, query,
		user.Username, user.PasswordHash, user.FirstName, user.LastName,
		user.Email, user.PhoneNumber, user.ProfilePicture, user.APIKey,
	)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
