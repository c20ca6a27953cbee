package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type mockAuthRepo struct {
	users      map[string]*models.User
	principals map[models.Role]*models.Principal
	roleErr    error
	lookupErr  error
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	user, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	for _, user := range m.users {
		if user.APIKey != nil && *user.APIKey == apiKey {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Principal(ctx context.Context, userID int64, role models.Role) (*models.Principal, error) {
	principal, ok := m.principals[role]
	if !ok || principal.UserID != userID {
		return nil, sql.ErrNoRows
	}
	copied := *principal
	return &copied, nil
}

func (m *mockAuthRepo) RoleOf(ctx context.Context, userID int64) (models.Role, error) {
	if m.roleErr != nil {
		return "", m.roleErr
	}
	for role, principal := range m.principals {
		if principal.UserID == userID {
			return role, nil
		}
	}
	return "", sql.ErrNoRows
}

func newAuthFixture(t *testing.T, position string) (*AuthService, *mockAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	key := "key-ivanova"

	repo := &mockAuthRepo{
		users: map[string]*models.User{
			"ivanova": {ID: 2, Username: "ivanova", PasswordHash: string(hash), APIKey: &key},
		},
		principals: map[models.Role]*models.Principal{
			models.RoleTeacher: {UserID: 2, Username: "ivanova", Role: models.RoleTeacher, RoleID: 7, Position: position},
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{Secret: "secret", Issuer: "school-diary", Expiry: time.Hour})
	return svc, repo
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, _ := newAuthFixture(t, "Учитель")

	principal, err := svc.Authenticate(context.Background(), dto.LoginRequest{Username: "ivanova", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, principal.Role)
	assert.Equal(t, int64(7), principal.RoleID)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t, "Учитель")
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, dto.LoginRequest{Username: "ivanova", Password: "wrong"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Authenticate(ctx, dto.LoginRequest{Username: "nobody", Password: "password123"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Authenticate(ctx, dto.LoginRequest{Username: "ivanova"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestAuthenticateLookupFailure(t *testing.T) {
	svc, repo := newAuthFixture(t, "Учитель")
	repo.lookupErr = errors.New("connection reset")

	_, err := svc.Authenticate(context.Background(), dto.LoginRequest{Username: "ivanova", Password: "password123"})

	assertStatus(t, err, http.StatusInternalServerError)
}

func TestAuthenticateAsWrongRole(t *testing.T) {
	svc, _ := newAuthFixture(t, "Учитель")

	_, err := svc.AuthenticateAs(context.Background(), dto.LoginRequest{Username: "ivanova", Password: "password123"}, models.RoleStudent)

	assertStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "user is not a student", appErrors.FromError(err).Message)
}

func TestAuthenticateAsTeacherWithoutPosition(t *testing.T) {
	svc, _ := newAuthFixture(t, "")

	_, err := svc.AuthenticateAs(context.Background(), dto.LoginRequest{Username: "ivanova", Password: "password123"}, models.RoleTeacher)

	assert.True(t, appErrors.Is(err, ErrNoPosition))
}

func TestPrincipalForUser(t *testing.T) {
	svc, repo := newAuthFixture(t, models.PositionHeadTeacher)
	ctx := context.Background()

	principal, err := svc.PrincipalForUser(ctx, 2, "")
	require.NoError(t, err)
	assert.True(t, principal.IsHeadTeacher())

	_, err = svc.PrincipalForUser(ctx, 99, "")
	assertStatus(t, err, http.StatusForbidden)

	repo.roleErr = errors.New("boom")
	_, err = svc.PrincipalForUser(ctx, 2, "")
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestPrincipalForAPIKey(t *testing.T) {
	svc, _ := newAuthFixture(t, "Учитель")
	ctx := context.Background()

	principal, err := svc.PrincipalForAPIKey(ctx, "key-ivanova", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "ivanova", principal.Username)

	_, err = svc.PrincipalForAPIKey(ctx, "unknown", models.RoleTeacher)
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = svc.PrincipalForAPIKey(ctx, "key-ivanova", models.RoleAdmin)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestPrincipalForAPIKeyTeacherWithoutPosition(t *testing.T) {
	svc, _ := newAuthFixture(t, "")

	_, err := svc.PrincipalForAPIKey(context.Background(), "key-ivanova", models.RoleTeacher)

	assert.True(t, appErrors.Is(err, ErrNoPosition))
}

func TestIssueAndValidateToken(t *testing.T) {
	svc, _ := newAuthFixture(t, "Учитель")

	token, err := svc.IssueToken(context.Background(), dto.LoginRequest{Username: "ivanova", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.Equal(t, "teacher", token.Role)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(2), claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestValidateTokenRejectsForeignIssuer(t *testing.T) {
	svc, _ := newAuthFixture(t, "Учитель")
	other := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{Secret: "secret", Issuer: "elsewhere"})

	token, err := svc.IssueToken(context.Background(), dto.LoginRequest{Username: "ivanova", Password: "password123"})
	require.NoError(t, err)

	_, err = other.ValidateToken(token.AccessToken)
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = svc.ValidateToken("not-a-token")
	assertStatus(t, err, http.StatusUnauthorized)
}
