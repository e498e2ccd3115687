package models

import "time"

type Role string

const (
	RoleUser     Role = "USER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleProvider || r == RoleAdmin
}

// Principal is the identity behind a bearer token, as far as the gateway knows it.
type Principal struct {
	UserID    int64     `json:"userId,omitempty"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

type UserRegistration struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ProviderRegistration struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
}

type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ProviderResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type OTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// LoginResponse covers both login steps: OTPRequired is set on the first
// step for users and providers, Token once the OTP is verified.
type LoginResponse struct {
	Message     string `json:"message"`
	Role        Role   `json:"role,omitempty"`
	Token       string `json:"token,omitempty"`
	OTPRequired bool   `json:"otpRequired"`
	Email       string `json:"email,omitempty"`
}
