package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded for staff override usage.
const (
	AuditActionStaffStudentLogin = "staff_override.student_login"
	AuditActionStaffTeacherLogin = "staff_override.teacher_login"
)

// IsAuditAction reports whether action is one of the recorded audit actions.
func IsAuditAction(action string) bool {
	return action == AuditActionStaffStudentLogin || action == AuditActionStaffTeacherLogin
}

// AuditLog captures a use of the staff override password.
type AuditLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	PreferredName string            `gorm:"size:255" json:"preferred_name"`
	StudentID     string            `gorm:"size:64" json:"student_id"`
	IPAddress     string            `gorm:"size:64" json:"ip_address"`
	CorrelationID string            `gorm:"size:64" json:"correlation_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
}
