package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
)

// ErrAuditUnavailable is returned when no audit store is configured.
var ErrAuditUnavailable = errors.New("audit log store is not configured")

const (
	defaultAuditListLimit = 50
	maxAuditListLimit     = 500
)

// EventPublisher is satisfied by *nats.Conn.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// AuditEntry describes one staff override usage.
type AuditEntry struct {
	Action        string
	PreferredName string
	StudentID     string
	IPAddress     string
	CorrelationID string
	Metadata      map[string]interface{}
}

// AuditQuery selects audit entries for listing. An empty Action matches all.
type AuditQuery struct {
	Action string
	Limit  int
}

// AuditEvent is the payload published for each staff override.
type AuditEvent struct {
	Action        string    `json:"action"`
	PreferredName string    `json:"preferredName,omitempty"`
	StudentID     string    `json:"studentId,omitempty"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	CorrelationID string    `json:"correlationId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// AuditService records staff override usage to the log, the database and the
// event bus, whichever are configured.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, query AuditQuery) ([]models.AuditLog, error)
	Enabled() bool
}

type auditService struct {
	repo      repository.AuditLogRepository
	publisher EventPublisher
	subject   string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuditService builds the audit recorder. repo and publisher may be nil.
func NewAuditService(repo repository.AuditLogRepository, publisher EventPublisher, subjectBase string, logger zerolog.Logger) AuditService {
	subjectBase = strings.Trim(strings.TrimSpace(subjectBase), ".")
	if subjectBase == "" {
		subjectBase = "portal"
	}

	return &auditService{
		repo:      repo,
		publisher: publisher,
		subject:   subjectBase + ".audit.staff_override",
		logger:    logger.With().Str("component", "audit_service").Logger(),
		now:       time.Now,
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	occurredAt := s.now().UTC()

	s.logger.Warn().
		Str("action", entry.Action).
		Str("preferred_name", entry.PreferredName).
		Str("student_id", entry.StudentID).
		Str("ip", entry.IPAddress).
		Str("correlation_id", entry.CorrelationID).
		Time("at", occurredAt).
		Msg("staff override used")

	if s.repo != nil {
		log := &models.AuditLog{
			Action:        entry.Action,
			PreferredName: entry.PreferredName,
			StudentID:     entry.StudentID,
			IPAddress:     entry.IPAddress,
			CorrelationID: entry.CorrelationID,
			Metadata:      entry.Metadata,
			CreatedAt:     occurredAt,
		}
		if err := s.repo.Create(ctx, log); err != nil {
			s.logger.Error().Err(err).Str("action", entry.Action).Msg("failed to persist audit log")
		}
	}

	if s.publisher != nil {
		payload, err := json.Marshal(AuditEvent{
			Action:        entry.Action,
			PreferredName: entry.PreferredName,
			StudentID:     entry.StudentID,
			IPAddress:     entry.IPAddress,
			CorrelationID: entry.CorrelationID,
			OccurredAt:    occurredAt,
		})
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to encode audit event")
			return
		}
		if err := s.publisher.Publish(s.subject, payload); err != nil {
			s.logger.Error().Err(err).Str("subject", s.subject).Msg("failed to publish audit event")
		}
	}
}

func (s *auditService) List(ctx context.Context, query AuditQuery) ([]models.AuditLog, error) {
	if s.repo == nil {
		return nil, ErrAuditUnavailable
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	if limit > maxAuditListLimit {
		limit = maxAuditListLimit
	}
	return s.repo.List(ctx, repository.AuditLogFilter{Action: query.Action, Limit: limit})
}

func (s *auditService) Enabled() bool {
	return s.repo != nil
}
