package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/internal/service"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

// stubResolver knows teacher 2 (no position when positionless is set), student 20 and one API key.
type stubResolver struct {
	positionless bool
	calls        []string
}

func (s *stubResolver) PrincipalForUser(ctx context.Context, userID int64, role models.Role) (*models.Principal, error) {
	s.calls = append(s.calls, "user")
	var principal *models.Principal
	switch userID {
	case 2:
		principal = &models.Principal{UserID: 2, Username: "ivanova", Role: models.RoleTeacher, RoleID: 7, Position: "Учитель"}
		if s.positionless {
			principal.Position = ""
		}
	case 20:
		principal = &models.Principal{UserID: 20, Username: "petrov", Role: models.RoleStudent, RoleID: 5}
	default:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
	}
	if role != "" && principal.Role != role {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user is not a "+string(role))
	}
	if role == models.RoleTeacher && principal.Position == "" {
		return nil, service.ErrNoPosition
	}
	return principal, nil
}

func (s *stubResolver) PrincipalForAPIKey(ctx context.Context, apiKey string, role models.Role) (*models.Principal, error) {
	s.calls = append(s.calls, "api_key")
	if apiKey != "key-petrov" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid api key")
	}
	if role != "" && role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid api key for "+string(role))
	}
	return &models.Principal{UserID: 20, Username: "petrov", Role: models.RoleStudent, RoleID: 5}, nil
}

func (s *stubResolver) ValidateToken(token string) (*models.JWTClaims, error) {
	s.calls = append(s.calls, "token")
	if token != "good-token" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: 2, Username: "ivanova", Role: models.RoleTeacher}, nil
}

func newAuthRouter(resolver PrincipalResolver, role models.Role, logger *zap.Logger, metrics *service.MetricsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("diary_session", cookie.NewStore([]byte("test-secret"))))
	router.POST("/login/:user_id", func(c *gin.Context) {
		session := sessions.Default(c)
		if c.Param("user_id") == "2" {
			session.Set(SessionUserKey, int64(2))
		} else {
			session.Set(SessionUserKey, int64(20))
		}
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	router.GET("/protected", Authorize(resolver, role, logger, metrics), func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, principal.Username)
	})
	return router
}

func loginCookie(t *testing.T, router *gin.Engine, userID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login/"+userID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestAuthorizeWithoutCredentials(t *testing.T) {
	router := newAuthRouter(&stubResolver{}, models.RoleTeacher, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), appErrors.ErrUnauthorized.Code)
}

func TestAuthorizeSession(t *testing.T) {
	resolver := &stubResolver{}
	router := newAuthRouter(resolver, models.RoleTeacher, nil, nil)
	cookie := loginCookie(t, router, "2")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(cookie)
	req.Header.Set(APIKeyHeader, "key-petrov")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ivanova", rec.Body.String())
	assert.Equal(t, []string{"user"}, resolver.calls)
}

func TestAuthorizeSessionWrongRole(t *testing.T) {
	router := newAuthRouter(&stubResolver{}, models.RoleTeacher, nil, nil)
	cookie := loginCookie(t, router, "20")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "user is not a teacher")
}

func TestAuthorizeTeacherWithoutPosition(t *testing.T) {
	router := newAuthRouter(&stubResolver{positionless: true}, models.RoleTeacher, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), service.ErrNoPosition.Code)
}

func TestAuthorizeBearer(t *testing.T) {
	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"lowercase scheme", "bearer good-token", http.StatusOK},
		{"bad token", "Bearer forged", http.StatusUnauthorized},
		{"missing token", "Bearer ", http.StatusUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newAuthRouter(&stubResolver{}, models.RoleTeacher, nil, nil)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", tc.header)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAuthorizeAPIKey(t *testing.T) {
	router := newAuthRouter(&stubResolver{}, models.RoleStudent, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(APIKeyHeader, " key-petrov ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "petrov", rec.Body.String())

	teacherOnly := newAuthRouter(&stubResolver{}, models.RoleTeacher, nil, nil)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(APIKeyHeader, "key-petrov")
	rec = httptest.NewRecorder()
	teacherOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizeAnyRole(t *testing.T) {
	router := newAuthRouter(&stubResolver{}, "", nil, nil)
	cookie := loginCookie(t, router, "20")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizeLogsDecisions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := newAuthRouter(&stubResolver{}, models.RoleTeacher, zap.New(core), service.NewMetricsService())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer forged")
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(httptest.NewRecorder(), req)

	denied := logs.FilterMessage("authorization failed").All()
	require.Len(t, denied, 1)
	fields := denied[0].ContextMap()
	assert.Equal(t, "denied", fields["outcome"])
	assert.Equal(t, "bearer", fields["source"])
	assert.Equal(t, "/protected", fields["endpoint"])

	granted := logs.FilterMessage("authorization granted").All()
	require.Len(t, granted, 1)
	assert.Equal(t, "ivanova", granted[0].ContextMap()["user"])
}

func TestAuthorizeInternalErrorOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	resolver := failingResolver{err: appErrors.Internal(sql.ErrConnDone, "failed to load principal")}
	router := newAuthRouter(resolver, models.RoleTeacher, zap.New(core), nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(APIKeyHeader, "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "error", logs.All()[0].ContextMap()["outcome"])
}

type failingResolver struct {
	err error
}

func (f failingResolver) PrincipalForUser(ctx context.Context, userID int64, role models.Role) (*models.Principal, error) {
	return nil, f.err
}

func (f failingResolver) PrincipalForAPIKey(ctx context.Context, apiKey string, role models.Role) (*models.Principal, error) {
	return nil, f.err
}

func (f failingResolver) ValidateToken(token string) (*models.JWTClaims, error) {
	return nil, f.err
}
