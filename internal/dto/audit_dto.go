package dto

import (
	"time"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// AuditLogResponse is the API view of a staff override audit entry.
type AuditLogResponse struct {
	ID            uint                   `json:"id"`
	Action        string                 `json:"action"`
	PreferredName string                 `json:"preferredName,omitempty"`
	StudentID     string                 `json:"studentId,omitempty"`
	IPAddress     string                 `json:"ipAddress,omitempty"`
	CorrelationID string                 `json:"correlationId,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// AuditLogListResponse wraps a page of audit entries.
type AuditLogListResponse struct {
	Success bool               `json:"success"`
	Items   []AuditLogResponse `json:"items"`
}

// NewAuditLogResponse maps a model to its API view.
func NewAuditLogResponse(entry models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:            entry.ID,
		Action:        entry.Action,
		PreferredName: entry.PreferredName,
		StudentID:     entry.StudentID,
		IPAddress:     entry.IPAddress,
		CorrelationID: entry.CorrelationID,
		Metadata:      map[string]interface{}(entry.Metadata),
		CreatedAt:     entry.CreatedAt,
	}
}
