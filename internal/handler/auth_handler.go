package handler

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/middleware"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type authService interface {
	Authenticate(ctx context.Context, req dto.LoginRequest) (*models.Principal, error)
	IssueToken(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error)
}

// AuthHandler serves the browser session login and the bearer token endpoint.
type AuthHandler struct {
	service authService
	logger  *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{service: svc, logger: logger}
}

// WebLogin godoc
// @Summary Browser login
// @Description Checks credentials and stores the user id in the session cookie
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) WebLogin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid login payload"))
		return
	}
	principal, err := h.service.Authenticate(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("web login failed", zap.String("username", req.Username), zap.String("ip", c.ClientIP()), zap.Error(err))
		response.Error(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserKey, principal.UserID)
	if err := session.Save(); err != nil {
		response.Error(c, appErrors.Internal(err, "failed to save session"))
		return
	}
	h.logger.Info("web login", zap.String("username", principal.Username), zap.String("role", string(principal.Role)))
	response.Message(c, http.StatusOK, "logged in", gin.H{"user_id": principal.UserID, "role": principal.Role})
}

// Logout godoc
// @Summary Browser logout
// @Description Clears the session cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		response.Error(c, appErrors.Internal(err, "failed to clear session"))
		return
	}
	response.Message(c, http.StatusOK, "logged out", nil)
}

// Token godoc
// @Summary Issue bearer token
// @Description Exchanges credentials for a short lived JWT
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}
