package dto

import (
	"time"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// LoginRequest is the payload for student login.
type LoginRequest struct {
	PreferredName string `json:"preferredName" validate:"required,max=255"`
	Password      string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful student login.
type LoginResponse struct {
	Success        bool                  `json:"success"`
	StaffOverride  bool                  `json:"staffOverride"`
	Student        models.StudentProfile `json:"student"`
	Token          string                `json:"token,omitempty"`
	TokenExpiresAt *time.Time            `json:"tokenExpiresAt,omitempty"`
}

// TeacherLoginRequest is the payload for instructor login.
type TeacherLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// TeacherLoginResponse is returned after a successful instructor login.
type TeacherLoginResponse struct {
	Success        bool       `json:"success"`
	Role           string     `json:"role"`
	Token          string     `json:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}
