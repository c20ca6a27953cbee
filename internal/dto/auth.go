package dto

import "github.com/noah-isme/school-diary-api/internal/models"

// LoginRequest holds credentials for web and token login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        string `json:"role"`
}

// Settings is the caller's own profile.
type Settings struct {
	models.User
	Role models.Role `json:"role"`
}

// APIKeyResponse returns a freshly generated API key.
type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// CreateAdminRequest is the input of the createadmin command.
type CreateAdminRequest struct {
	Username  string `validate:"required,max=64"`
	Password  string `validate:"required,min=6"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"omitempty,email"`
}
