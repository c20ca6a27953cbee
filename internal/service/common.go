package service

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/pkg/database"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

// NewValidator returns a validator with the custom tags used by request payloads.
func NewValidator() *validator.Validate {
	return registerValidations(validator.New())
}

func registerValidations(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return models.IsWeekday(fl.Field().String())
	})
	return v
}

func invalid(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		message = fmt.Sprintf("%s: %s", message, strings.Join(parts, "; "))
	}
	return appErrors.Validation(err, message)
}

func badRequest(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func notFound(message string) error {
	return appErrors.Clone(appErrors.ErrNotFound, message)
}

func forbidden(message string) error {
	return appErrors.Clone(appErrors.ErrForbidden, message)
}

// lookupError maps sql.ErrNoRows to a not found error and anything else to a 500.
func lookupError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(what + " not found")
	}
	return appErrors.Internal(err, "failed to load "+what)
}

// writeError maps constraint violations to 400 and anything else to a 500 carrying the cause.
func writeError(err error, message string) error {
	switch {
	case database.IsUniqueViolation(err):
		return appErrors.Validation(err, "value already in use")
	case database.IsForeignKeyViolation(err):
		return appErrors.Validation(err, "referenced record does not exist")
	}
	return appErrors.Internal(err, message)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}

// generateAPIKey returns 32 random bytes hex encoded.
func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", appErrors.Internal(err, "failed to generate api key")
	}
	return hex.EncodeToString(buf), nil
}

func ptr[T any](v T) *T {
	return &v
}
