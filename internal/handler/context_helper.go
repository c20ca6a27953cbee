package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/school-diary-api/internal/middleware"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
	"github.com/noah-isme/school-diary-api/pkg/response"
	"github.com/noah-isme/school-diary-api/pkg/storage"
)

const (
	mimeJSON      = "application/json"
	mimeMultipart = "multipart/form-data"
	pictureField  = "profile_picture"
)

// ImageStore persists uploaded profile pictures.
type ImageStore interface {
	SaveImage(originalName string, r io.Reader) (string, error)
	Delete(filename string) error
}

func principalFromContext(c *gin.Context) *models.Principal {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return nil
	}
	return principal
}

// requirePrincipal writes 401 when the route was not behind Authorize.
func requirePrincipal(c *gin.Context) (*models.Principal, bool) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return principal, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// bindJSON decodes a JSON body, answering 415 for other content types.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if c.ContentType() != mimeJSON {
		response.Error(c, appErrors.ErrUnsupportedMediaType)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid payload"))
		return false
	}
	return true
}

// bindForm decodes a JSON or multipart body. For multipart requests an optional profile picture
// is stored and its file name returned.
func bindForm(c *gin.Context, dst interface{}, store ImageStore) (*string, bool) {
	switch c.ContentType() {
	case mimeJSON:
		if err := c.ShouldBindJSON(dst); err != nil {
			response.Error(c, appErrors.Validation(err, "invalid payload"))
			return nil, false
		}
		return nil, true
	case mimeMultipart:
		if err := c.ShouldBindWith(dst, binding.FormMultipart); err != nil {
			response.Error(c, appErrors.Validation(err, "invalid form"))
			return nil, false
		}
		return savePicture(c, store)
	default:
		response.Error(c, appErrors.ErrUnsupportedMediaType)
		return nil, false
	}
}

func savePicture(c *gin.Context, store ImageStore) (*string, bool) {
	header, err := c.FormFile(pictureField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		response.Error(c, appErrors.Validation(err, "invalid profile picture"))
		return nil, false
	}
	if store == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "uploads are disabled"))
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return nil, false
	}
	defer file.Close()

	name, err := store.SaveImage(header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedFile):
			response.Error(c, appErrors.Validation(err, "profile picture must be png, jpg, gif or webp"))
		case errors.Is(err, storage.ErrTooLarge):
			response.Error(c, appErrors.Validation(err, "profile picture is too large"))
		default:
			response.Error(c, appErrors.Internal(err, "failed to store profile picture"))
		}
		return nil, false
	}
	return &name, true
}

// discardPicture removes an upload whose owning write failed.
func discardPicture(store ImageStore, name *string) {
	if store != nil && name != nil {
		_ = store.Delete(*name)
	}
}
