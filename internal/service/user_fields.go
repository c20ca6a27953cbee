package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type uniqueUserChecker interface {
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
}

type pictureRemover interface {
	Delete(filename string) error
}

// replacePicture removes the user's previous upload after next has been saved in its place.
func replacePicture(store pictureRemover, previous, next *string, logger *zap.Logger, userID int64) {
	if store == nil || next == nil || previous == nil || *previous == "" || *previous == *next {
		return
	}
	if err := store.Delete(*previous); err != nil {
		logger.Warn("failed to remove previous profile picture", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ensureUniqueUser rejects a username or email already used by another account.
func ensureUniqueUser(ctx context.Context, users uniqueUserChecker, username, email string, excludeID int64) error {
	if username != "" {
		taken, err := users.ExistsByUsername(ctx, username, excludeID)
		if err != nil {
			return appErrors.Internal(err, "failed to validate username")
		}
		if taken {
			return badRequest("username already exists")
		}
	}
	if email != "" {
		taken, err := users.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return appErrors.Internal(err, "failed to validate email")
		}
		if taken {
			return badRequest("email already exists")
		}
	}
	return nil
}

// userColumns converts a user patch into column values, validating uniqueness against other users
// and hashing a new password. It returns the changed field names in request order.
func userColumns(ctx context.Context, users uniqueUserChecker, userID int64, patch dto.UserPatch) (map[string]interface{}, []string, error) {
	fields := make(map[string]interface{})
	var names []string
	set := func(column string, value interface{}) {
		fields[column] = value
		names = append(names, column)
	}

	var username, email string
	if patch.Username != nil {
		username = strings.TrimSpace(*patch.Username)
		if username == "" {
			return nil, nil, badRequest("username cannot be empty")
		}
	}
	if patch.Email != nil {
		email = strings.TrimSpace(*patch.Email)
	}
	if err := ensureUniqueUser(ctx, users, username, email, userID); err != nil {
		return nil, nil, err
	}

	if patch.Username != nil {
		set("username", username)
	}
	if patch.Password != nil {
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return nil, nil, err
		}
		set("password_hash", hash)
	}
	if patch.FirstName != nil {
		set("first_name", strings.TrimSpace(*patch.FirstName))
	}
	if patch.LastName != nil {
		set("last_name", strings.TrimSpace(*patch.LastName))
	}
	if patch.Email != nil {
		if email == "" {
			set("email", nil)
		} else {
			set("email", email)
		}
	}
	if patch.PhoneNumber != nil {
		set("phone_number", strings.TrimSpace(*patch.PhoneNumber))
	}
	if patch.ProfilePicture != nil {
		set("profile_picture", *patch.ProfilePicture)
	}
	return fields, names, nil
}
