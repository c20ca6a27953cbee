package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/models"
)

var userRowColumns = []string{"user_id", "username", "password_hash", "first_name", "last_name", "email", "phone_number", "profile_picture", "api_key", "created_at"}

func expectUser(mock sqlmock.Sqlmock, id int64, username string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE u.user_id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id, username, "hash", "Анна", "Иванова", nil, "", nil, "key", time.Now()))
}

func TestUserRepositoryPrincipalTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	expectUser(mock, 2, "ivanova")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT teacher_id FROM teachers WHERE user_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.position_name FROM teacher_position_assignments")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"position_name"}).AddRow(models.PositionHeadTeacher))

	principal, err := repo.Principal(context.Background(), 2, models.RoleTeacher)
	require.NoError(t, err)
	require.Equal(t, int64(7), principal.RoleID)
	require.True(t, principal.IsHeadTeacher())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryPrincipalTeacherWithoutPosition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	expectUser(mock, 2, "ivanova")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT teacher_id FROM teachers")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.position_name")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"position_name"}))

	principal, err := repo.Principal(context.Background(), 2, models.RoleTeacher)
	require.NoError(t, err)
	require.Empty(t, principal.Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryPrincipalStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	expectUser(mock, 20, "petrov")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, class_id FROM students WHERE user_id = $1")).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "class_id"}).AddRow(5, nil))

	principal, err := repo.Principal(context.Background(), 20, models.RoleStudent)
	require.NoError(t, err)
	require.Equal(t, int64(5), principal.RoleID)
	require.Nil(t, principal.ClassID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryPrincipalMissingRole(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	expectUser(mock, 20, "petrov")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT admin_id FROM admins WHERE user_id = $1")).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"admin_id"}))

	_, err := repo.Principal(context.Background(), 20, models.RoleAdmin)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRoleOf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CASE")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"case"}).AddRow("teacher"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CASE")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"case"}).AddRow(""))

	role, err := repo.RoleOf(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, models.RoleTeacher, role)

	_, err = repo.RoleOf(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
