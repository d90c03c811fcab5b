package service

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/observability"
)

// Reasons reported for failed authentication.
const (
	ReasonMissingFields = "missing-fields"
	ReasonNotFound      = "not-found"
	ReasonBadPassword   = "bad-password"
)

// AuthRequest carries login credentials plus request metadata for auditing.
type AuthRequest struct {
	PreferredName string
	Password      string
	IPAddress     string
	CorrelationID string
}

// AuthResult is the outcome of a login attempt. Student never carries the
// derived password.
type AuthResult struct {
	OK            bool
	StaffOverride bool
	Student       models.StudentProfile
	Reason        string
}

// AuthService validates portal logins against the student directory.
type AuthService interface {
	Authenticate(ctx context.Context, req AuthRequest) AuthResult
	AuthenticateStaff(ctx context.Context, req AuthRequest) bool
}

type authService struct {
	directory      DirectoryService
	audit          AuditService
	masterPassword string
	logger         zerolog.Logger
}

// NewAuthService builds the login validator. An empty masterPassword disables
// the staff override.
func NewAuthService(directory DirectoryService, audit AuditService, masterPassword string, logger zerolog.Logger) AuthService {
	return &authService{
		directory:      directory,
		audit:          audit,
		masterPassword: masterPassword,
		logger:         logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Authenticate(ctx context.Context, req AuthRequest) AuthResult {
	if strings.TrimSpace(req.PreferredName) == "" || req.Password == "" {
		return s.fail("student", ReasonMissingFields)
	}

	student, ok := s.directory.Lookup(req.PreferredName)
	if !ok {
		return s.fail("student", ReasonNotFound)
	}

	if s.matchesMaster(req.Password) {
		if s.audit != nil {
			s.audit.Record(ctx, AuditEntry{
				Action:        models.AuditActionStaffStudentLogin,
				PreferredName: student.PreferredName,
				StudentID:     student.StudentID,
				IPAddress:     req.IPAddress,
				CorrelationID: req.CorrelationID,
			})
		}
		observability.LoginAttempts().WithLabelValues("student", "staff_override").Inc()
		return AuthResult{OK: true, StaffOverride: true, Student: student.Profile()}
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(student.Password)) != 1 {
		return s.fail("student", ReasonBadPassword)
	}

	observability.LoginAttempts().WithLabelValues("student", "success").Inc()
	return AuthResult{OK: true, Student: student.Profile()}
}

func (s *authService) AuthenticateStaff(ctx context.Context, req AuthRequest) bool {
	if req.Password == "" || !s.matchesMaster(req.Password) {
		observability.LoginAttempts().WithLabelValues("teacher", "failure").Inc()
		return false
	}

	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			Action:        models.AuditActionStaffTeacherLogin,
			IPAddress:     req.IPAddress,
			CorrelationID: req.CorrelationID,
		})
	}
	observability.LoginAttempts().WithLabelValues("teacher", "success").Inc()
	return true
}

func (s *authService) matchesMaster(password string) bool {
	if s.masterPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.masterPassword)) == 1
}

func (s *authService) fail(kind, reason string) AuthResult {
	observability.LoginAttempts().WithLabelValues(kind, reason).Inc()
	s.logger.Debug().Str("kind", kind).Str("reason", reason).Msg("login rejected")
	return AuthResult{Reason: reason}
}
