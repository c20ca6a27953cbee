package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

// ErrNoPosition rejects teachers that have no position assignment.
var ErrNoPosition = appErrors.New("NO_POSITION", http.StatusForbidden, "teacher has no position assigned")

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	Principal(ctx context.Context, userID int64, role models.Role) (*models.Principal, error)
	RoleOf(ctx context.Context, userID int64) (models.Role, error)
}

// AuthConfig defines configuration for bearer tokens.
type AuthConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// AuthService resolves callers into principals for the API and the bot.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = 12 * time.Hour
	}
	return &AuthService{repo: repo, validator: registerValidations(validate), logger: logger, config: config}
}

// Authenticate checks credentials and returns the principal of the user's own role.
func (s *AuthService) Authenticate(ctx context.Context, req dto.LoginRequest) (*models.Principal, error) {
	return s.AuthenticateAs(ctx, req, "")
}

// AuthenticateAs checks credentials and requires the user to carry role. An empty role accepts
// the user's own role.
func (s *AuthService) AuthenticateAs(ctx context.Context, req dto.LoginRequest, role models.Role) (*models.Principal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid login payload")
	}
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	return s.PrincipalForUser(ctx, user.ID, role)
}

// PrincipalForUser loads the principal of an already identified user (session cookie, bearer
// token, linked bot chat). A user lacking role is forbidden; an unknown user is unauthorized.
func (s *AuthService) PrincipalForUser(ctx context.Context, userID int64, role models.Role) (*models.Principal, error) {
	if role == "" {
		own, err := s.repo.RoleOf(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, forbidden("user has no role")
			}
			return nil, appErrors.Internal(err, "failed to resolve role")
		}
		return s.principal(ctx, userID, own, false)
	}
	return s.principal(ctx, userID, role, true)
}

// PrincipalForAPIKey resolves an X-API-Key header. Unknown keys and keys of users lacking role are
// unauthorized.
func (s *AuthService) PrincipalForAPIKey(ctx context.Context, apiKey string, role models.Role) (*models.Principal, error) {
	user, err := s.repo.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid api key")
		}
		return nil, appErrors.Internal(err, "failed to resolve api key")
	}
	if role == "" {
		return s.PrincipalForUser(ctx, user.ID, role)
	}
	principal, err := s.repo.Principal(ctx, user.ID, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid api key for "+string(role))
		}
		return nil, appErrors.Internal(err, "failed to load principal")
	}
	if role == models.RoleTeacher && principal.Position == "" {
		return nil, ErrNoPosition
	}
	return principal, nil
}

func (s *AuthService) principal(ctx context.Context, userID int64, role models.Role, required bool) (*models.Principal, error) {
	principal, err := s.repo.Principal(ctx, userID, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if required {
				return nil, forbidden(notRole(role))
			}
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load principal")
	}
	if required && role == models.RoleTeacher && principal.Position == "" {
		return nil, ErrNoPosition
	}
	return principal, nil
}

func notRole(role models.Role) string {
	return "user is not a " + string(role)
}

// IssueToken exchanges credentials for a signed bearer token.
func (s *AuthService) IssueToken(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	principal, err := s.Authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	token, err := s.signToken(principal)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	s.logger.Info("token issued", zap.String("user", principal.Username), zap.String("role", string(principal.Role)))
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
		Role:        string(principal.Role),
	}, nil
}

// ValidateToken parses and validates a bearer token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) signToken(principal *models.Principal) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:   principal.UserID,
		Username: principal.Username,
		Role:     principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(principal.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}
