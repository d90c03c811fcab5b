package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type stubDeriver struct{}

func (stubDeriver) Derive(studentID string) string {
	return "pw-" + studentID
}

type stubRoster struct {
	mu    sync.Mutex
	rows  []models.RosterRow
	err   error
	calls int
	block chan struct{}
}

func (s *stubRoster) List(ctx context.Context) ([]models.RosterRow, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	rows, err := s.rows, s.err
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return rows, err
}

func (s *stubRoster) set(rows []models.RosterRow, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.err = err
}

func (s *stubRoster) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubAttendanceRepo struct {
	records   []models.AttendanceRecord
	err       error
	lastQuery repository.AttendanceQuery
}

func (s *stubAttendanceRepo) ListForStudent(_ context.Context, query repository.AttendanceQuery) ([]models.AttendanceRecord, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, entry AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) List(context.Context, AuditQuery) ([]models.AuditLog, error) {
	return nil, ErrAuditUnavailable
}

func (r *recordingAudit) Enabled() bool { return false }

func sampleRoster() []models.RosterRow {
	return []models.RosterRow{
		{RecordID: "rec1", PreferredName: "Tamara", Name: "S022 - Tamara Jones"},
		{RecordID: "rec2", PreferredName: "Jon", Name: "Jonathan Smith", StudentID: "S031"},
		{RecordID: "rec3", PreferredName: "", Name: "S040 - Nobody"},
		{RecordID: "rec4", PreferredName: "Ghost", Name: "No Identifier"},
		{RecordID: "rec5", PreferredName: " tamara ", Name: "S099 - Tamara Lee"},
	}
}

func strPtr(value string) *string {
	return &value
}
