package middleware

import (
	"context"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/internal/service"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

const (
	// ContextPrincipalKey is the gin context key storing the resolved caller.
	ContextPrincipalKey = "principal"
	// SessionUserKey is the session value holding the logged in user id.
	SessionUserKey = "user_id"
	// APIKeyHeader carries a per-user API key.
	APIKeyHeader = "X-API-Key"
)

// PrincipalResolver resolves credentials into a principal.
type PrincipalResolver interface {
	PrincipalForUser(ctx context.Context, userID int64, role models.Role) (*models.Principal, error)
	PrincipalForAPIKey(ctx context.Context, apiKey string, role models.Role) (*models.Principal, error)
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Authorize resolves the caller from the session cookie, a bearer token or the X-API-Key header,
// in that order, and requires role. An empty role accepts any authenticated user.
func Authorize(resolver PrincipalResolver, role models.Role, logger *zap.Logger, metrics *service.MetricsService) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		principal, source, err := resolve(c, resolver, role)

		fields := []zap.Field{
			zap.String("ip", c.ClientIP()),
			zap.String("endpoint", endpoint(c)),
			zap.String("method", c.Request.Method),
			zap.String("role", string(role)),
			zap.String("source", source),
		}
		if principal != nil {
			fields = append(fields, zap.String("user", principal.Username))
		}

		if err != nil {
			appErr := appErrors.FromError(err)
			outcome := "denied"
			if appErr.Status >= 500 {
				outcome = "error"
			}
			logger.Warn("authorization failed", append(fields, zap.String("outcome", outcome), zap.String("reason", appErr.Message))...)
			if metrics != nil {
				metrics.RecordAuthDecision(string(role), outcome)
			}
			response.Error(c, appErr)
			c.Abort()
			return
		}

		logger.Info("authorization granted", append(fields, zap.String("outcome", "granted"))...)
		if metrics != nil {
			metrics.RecordAuthDecision(string(role), "granted")
		}
		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

func resolve(c *gin.Context, resolver PrincipalResolver, role models.Role) (*models.Principal, string, error) {
	ctx := c.Request.Context()

	if userID, ok := sessionUser(c); ok {
		principal, err := resolver.PrincipalForUser(ctx, userID, role)
		return principal, "session", err
	}

	if header := c.GetHeader("Authorization"); header != "" {
		token, ok := bearerToken(header)
		if !ok {
			return nil, "bearer", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
		}
		claims, err := resolver.ValidateToken(token)
		if err != nil {
			return nil, "bearer", err
		}
		principal, err := resolver.PrincipalForUser(ctx, claims.UserID, role)
		return principal, "bearer", err
	}

	if apiKey := strings.TrimSpace(c.GetHeader(APIKeyHeader)); apiKey != "" {
		principal, err := resolver.PrincipalForAPIKey(ctx, apiKey, role)
		return principal, "api_key", err
	}

	return nil, "none", appErrors.ErrUnauthorized
}

// sessionUser reads the user id from the session cookie when the session middleware is installed.
func sessionUser(c *gin.Context) (int64, bool) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return 0, false
	}
	switch v := sessions.Default(c).Get(SessionUserKey).(type) {
	case int64:
		return v, v > 0
	case int:
		return int64(v), v > 0
	}
	return 0, false
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func endpoint(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}

// CurrentPrincipal returns the caller stored by Authorize.
func CurrentPrincipal(c *gin.Context) (*models.Principal, bool) {
	value, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*models.Principal)
	return principal, ok && principal != nil
}
