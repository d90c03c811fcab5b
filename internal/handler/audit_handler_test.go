package handler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/handler"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
)

type stubAuditService struct {
	entries   []models.AuditLog
	err       error
	lastQuery service.AuditQuery
}

func (s *stubAuditService) Record(context.Context, service.AuditEntry) {}

func (s *stubAuditService) List(_ context.Context, query service.AuditQuery) ([]models.AuditLog, error) {
	s.lastQuery = query
	return s.entries, s.err
}

func (s *stubAuditService) Enabled() bool { return s.err == nil }

func newAuditApp(svc service.AuditService) *fiber.App {
	app := fiber.New()
	handler.NewAuditHandler(svc, zerolog.Nop()).Register(app.Group("/api"))
	return app
}

func TestAuditHandlerLists(t *testing.T) {
	svc := &stubAuditService{entries: []models.AuditLog{{
		ID:            7,
		Action:        models.AuditActionStaffStudentLogin,
		PreferredName: "Tamara",
		StudentID:     "S022",
		CreatedAt:     time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
	}}}
	app := newAuditApp(svc)

	status, payload := getJSON(t, app, "/api/teacher/audit?limit=5&action="+models.AuditActionStaffStudentLogin)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, service.AuditQuery{Action: models.AuditActionStaffStudentLogin, Limit: 5}, svc.lastQuery)

	items := payload["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	require.Equal(t, "Tamara", item["preferredName"])
	require.Equal(t, models.AuditActionStaffStudentLogin, item["action"])
}

func TestAuditHandlerErrors(t *testing.T) {
	status, _ := getJSON(t, newAuditApp(&stubAuditService{}), "/api/teacher/audit?limit=abc")
	require.Equal(t, fiber.StatusBadRequest, status)

	status, payload := getJSON(t, newAuditApp(&stubAuditService{}), "/api/teacher/audit?action=drop_tables")
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "unknown audit action", payload["error"])

	status, _ = getJSON(t, newAuditApp(&stubAuditService{err: service.ErrAuditUnavailable}), "/api/teacher/audit")
	require.Equal(t, fiber.StatusServiceUnavailable, status)

	status, payload = getJSON(t, newAuditApp(&stubAuditService{err: errors.New("db gone")}), "/api/teacher/audit")
	require.Equal(t, fiber.StatusInternalServerError, status)
	require.Equal(t, "failed to load audit log", payload["error"])
}
