package models

import (
	"strings"
	"time"
)

// Role identifies which role table a user belongs to.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User represents an account stored in the users table.
type User struct {
	ID             int64     `db:"user_id" json:"user_id"`
	Username       string    `db:"username" json:"username"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          *string   `db:"email" json:"email"`
	PhoneNumber    string    `db:"phone_number" json:"phone_number"`
	ProfilePicture *string   `db:"profile_picture" json:"profile_picture"`
	APIKey         *string   `db:"api_key" json:"api_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
