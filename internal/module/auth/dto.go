package auth

import (
	"time"

	"github.com/simp-lee/tourbase/internal/domain"
)

// SignupRequest is the request body for POST /api/v1/users/signup.
type SignupRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// LoginRequest is the request body for POST /api/v1/users/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the request body for POST /api/v1/users/forgotPassword.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the request body for PATCH /api/v1/users/resetPassword/:token.
type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// UpdatePasswordRequest is the request body for PATCH /api/v1/users/updateMyPassword.
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// Credentials bundles a freshly issued token with the user it belongs to.
type Credentials struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}
