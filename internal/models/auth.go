package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload.
type JWTClaims struct {
	UserID     int64    `json:"user_id"`
	Email      string   `json:"email"`
	UserTypeID UserRole `json:"user_type_id"`
	jwt.RegisteredClaims
}

// ChangePasswordRequest carries a password rotation.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateSchoolRequest moves an account to another school.
type UpdateSchoolRequest struct {
	SchoolID *int64 `json:"school_id"`
}
