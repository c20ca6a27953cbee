package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/models"
)

func newStudent(t *testing.T) (*models.User, *models.Student) {
	t.Helper()
	birthDate, err := models.ParseDate("2010-05-18")
	require.NoError(t, err)
	email, apiKey, classID := "petrov@school.ru", "key", int64(1)
	user := &models.User{
		Username:     "petrov",
		PasswordHash: "hash",
		FirstName:    "Пётр",
		LastName:     "Петров",
		Email:        &email,
		PhoneNumber:  "+79001234567",
		APIKey:       &apiKey,
	}
	return user, &models.Student{ClassID: &classID, BirthDate: birthDate, Address: "ул. Ленина, 5"}
}

func TestStudentRepositoryCreateNumbersInsideTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	user, student := newStudent(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (username, password_hash, first_name, last_name, email, phone_number, profile_picture, api_key)")).
		WithArgs("petrov", "hash", "Пётр", "Петров", "petrov@school.ru", "+79001234567", nil, "key").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at"}).AddRow(40, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(student_id), 0) + 1 FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(6))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students (user_id, student_id, class_id, birth_date, address)")).
		WithArgs(int64(40), int64(6), int64(1), "2010-05-18", "ул. Ленина, 5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), user, student))
	require.Equal(t, int64(40), user.ID)
	require.Equal(t, int64(40), student.UserID)
	require.Equal(t, int64(6), student.StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	user, student := newStudent(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at"}).AddRow(40, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(student_id), 0) + 1 FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(6))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), user, student)
	require.EqualError(t, err, "create student: foreign key violation")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateWritesBothTables(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET first_name = $1 WHERE user_id = $2")).
		WithArgs("Маша", int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET address = $1, class_id = $2 WHERE user_id = $3")).
		WithArgs("ул. Мира, 3", int64(2), int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), 30,
		map[string]interface{}{"first_name": "Маша"},
		map[string]interface{}{"class_id": int64(2), "address": "ул. Мира, 3"},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
