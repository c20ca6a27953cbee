package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
)

type mockAccountRepo struct {
	usernames map[string]bool
	emails    map[string]bool
	created   *models.User
	hashes    map[string]string
}

func (m *mockAccountRepo) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return m.usernames[username], nil
}

func (m *mockAccountRepo) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return m.emails[email], nil
}

func (m *mockAccountRepo) CreateAdmin(ctx context.Context, user *models.User) (*models.Admin, error) {
	user.ID = 1
	m.created = user
	return &models.Admin{UserID: user.ID, AdminID: 1}, nil
}

func (m *mockAccountRepo) SetPasswordHash(ctx context.Context, username, hash string) error {
	if !m.usernames[username] {
		return sql.ErrNoRows
	}
	m.hashes[username] = hash
	return nil
}

func newAccountFixture() (*AccountService, *mockAccountRepo) {
	repo := &mockAccountRepo{
		usernames: map[string]bool{"admin": true},
		emails:    map[string]bool{"taken@school.ru": true},
		hashes:    map[string]string{},
	}
	return NewAccountService(repo, nil, nil), repo
}

func TestAccountCreateAdmin(t *testing.T) {
	svc, repo := newAccountFixture()

	admin, err := svc.CreateAdmin(context.Background(), dto.CreateAdminRequest{
		Username:  " director ",
		Password:  "s3cret!",
		FirstName: "Анна",
		LastName:  "Смирнова",
		Email:     "director@school.ru",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), admin.AdminID)
	require.NotNil(t, repo.created)
	assert.Equal(t, "director", repo.created.Username)
	require.NotNil(t, repo.created.APIKey)
	assert.NotEmpty(t, *repo.created.APIKey)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("s3cret!")))
}

func TestAccountCreateAdminRejections(t *testing.T) {
	cases := []struct {
		name string
		req  dto.CreateAdminRequest
	}{
		{"short password", dto.CreateAdminRequest{Username: "director", Password: "123", FirstName: "А", LastName: "Б"}},
		{"taken username", dto.CreateAdminRequest{Username: "admin", Password: "s3cret!", FirstName: "А", LastName: "Б"}},
		{"taken email", dto.CreateAdminRequest{Username: "director", Password: "s3cret!", FirstName: "А", LastName: "Б", Email: "taken@school.ru"}},
		{"bad email", dto.CreateAdminRequest{Username: "director", Password: "s3cret!", FirstName: "А", LastName: "Б", Email: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newAccountFixture()

			_, err := svc.CreateAdmin(context.Background(), tc.req)

			assertStatus(t, err, http.StatusBadRequest)
			assert.Nil(t, repo.created)
		})
	}
}

func TestAccountResetPassword(t *testing.T) {
	svc, repo := newAccountFixture()
	ctx := context.Background()

	require.NoError(t, svc.ResetPassword(ctx, "admin", "new-password"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes["admin"]), []byte("new-password")))

	assertStatus(t, svc.ResetPassword(ctx, "admin", "123"), http.StatusBadRequest)
	assertStatus(t, svc.ResetPassword(ctx, "ghost", "new-password"), http.StatusNotFound)
}
