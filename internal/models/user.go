package models

import "time"

// UserRole identifies the role of an account.
type UserRole int

const (
	RoleStudent UserRole = 1
	RoleTeacher UserRole = 2
)

// User represents an account in the system.
type User struct {
	ID           int64     `db:"user_id" json:"user_id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	SchoolID     *int64    `db:"school_id" json:"school_id,omitempty"`
	UserTypeID   UserRole  `db:"user_type_id" json:"user_type_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FullName returns the display name for rosters.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsTeacher reports whether the user holds the teacher role.
func (u User) IsTeacher() bool {
	return u.UserTypeID == RoleTeacher
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and basic identity.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public identity projection.
type UserInfo struct {
	ID         int64    `json:"user_id"`
	Email      string   `json:"email"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	UserTypeID UserRole `json:"user_type_id"`
}
