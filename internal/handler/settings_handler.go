package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/response"
)

type settingsService interface {
	Get(ctx context.Context, p *models.Principal) (*dto.Settings, error)
	Patch(ctx context.Context, p *models.Principal, patch dto.UserPatch) (*dto.UpdateResult, error)
	RotateAPIKey(ctx context.Context, p *models.Principal) (*dto.APIKeyResponse, error)
	Picture(ctx context.Context, p *models.Principal) (string, error)
}

// SettingsHandler lets any authenticated user manage their own profile.
type SettingsHandler struct {
	settings settingsService
	images   ImageStore
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings settingsService, images ImageStore) *SettingsHandler {
	return &SettingsHandler{settings: settings, images: images}
}

// Get godoc
// @Summary Own profile
// @Tags User Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /user/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	settings, err := h.settings.Get(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Patch godoc
// @Summary Update own profile
// @Tags User Settings
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.UserPatch true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /user/settings [patch]
func (h *SettingsHandler) Patch(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var patch dto.UserPatch
	picture, ok := bindForm(c, &patch, h.images)
	if !ok {
		return
	}
	patch.ProfilePicture = picture
	result, err := h.settings.Patch(c.Request.Context(), principal, patch)
	if err != nil {
		discardPicture(h.images, picture)
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RotateAPIKey godoc
// @Summary Issue a new API key
// @Tags User Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /user/settings/api_key [post]
func (h *SettingsHandler) RotateAPIKey(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	key, err := h.settings.RotateAPIKey(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "api key rotated", key)
}

// Picture godoc
// @Summary Download own profile picture
// @Tags User Settings
// @Produce octet-stream
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /user/settings/picture [get]
func (h *SettingsHandler) Picture(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	path, err := h.settings.Picture(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}
