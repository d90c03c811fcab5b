package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/student-portal-api/internal/credential"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/observability"
	"github.com/noah-isme/student-portal-api/internal/repository"
)

// ErrRefreshInProgress is returned when a refresh is already running.
var ErrRefreshInProgress = errors.New("directory refresh already in progress")

// PasswordDeriver maps a student identifier to its login password.
type PasswordDeriver interface {
	Derive(studentID string) string
}

// DirectoryService owns the in-memory student directory snapshot.
type DirectoryService interface {
	Refresh(ctx context.Context) error
	Lookup(name string) (models.Student, bool)
	Students() []models.Student
	Size() int
	LastRefreshed() time.Time
	Start(ctx context.Context)
	ListenForTriggers(ctx context.Context, client *redis.Client, channel string) error
}

// DirectoryOptions tunes the background refresh loop.
type DirectoryOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

type snapshot struct {
	students    []models.Student
	index       map[string]int
	refreshedAt time.Time
}

type directoryService struct {
	roster    repository.RosterRepository
	deriver   PasswordDeriver
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
	now       func() time.Time
	current   atomic.Pointer[snapshot]
	refreshMu sync.Mutex
}

// NewDirectoryService constructs the student directory.
func NewDirectoryService(roster repository.RosterRepository, deriver PasswordDeriver, opts DirectoryOptions, logger zerolog.Logger) DirectoryService {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &directoryService{
		roster:   roster,
		deriver:  deriver,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   logger.With().Str("component", "directory_service").Logger(),
		now:      time.Now,
	}
}

// BuildStudents resolves identifiers and derives passwords for roster rows.
// Rows without a usable display name or identifier are dropped.
func BuildStudents(rows []models.RosterRow, deriver PasswordDeriver) []models.Student {
	students := make([]models.Student, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.PreferredName) == "" {
			continue
		}
		studentID, ok := credential.ResolveStudentID(row.Name, row.StudentID)
		if !ok {
			continue
		}
		students = append(students, models.Student{
			PreferredName: row.PreferredName,
			StudentID:     studentID,
			Password:      deriver.Derive(studentID),
			CurrentCourse: strings.TrimSpace(row.CurrentCourse),
			PercentMissed: row.PercentMissed,
		})
	}
	return students
}

func (s *directoryService) Refresh(ctx context.Context) error {
	if !s.refreshMu.TryLock() {
		observability.DirectoryRefreshes().WithLabelValues("skipped").Inc()
		return ErrRefreshInProgress
	}
	defer s.refreshMu.Unlock()

	tracer := otel.Tracer("github.com/noah-isme/student-portal-api/internal/service/directory")
	ctx, span := tracer.Start(ctx, "directory.refresh")
	defer span.End()

	rows, err := s.roster.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_roster_failed")
		observability.DirectoryRefreshes().WithLabelValues("error").Inc()
		return fmt.Errorf("refresh directory: %w", err)
	}

	students := BuildStudents(rows, s.deriver)
	next := &snapshot{
		students:    students,
		index:       make(map[string]int, len(students)),
		refreshedAt: s.now().UTC(),
	}

	duplicates := 0
	for i, student := range students {
		key := models.NormalizeDisplayName(student.PreferredName)
		if _, exists := next.index[key]; exists {
			duplicates++
			continue
		}
		next.index[key] = i
	}

	s.current.Store(next)

	span.SetAttributes(
		attribute.Int("directory.rows", len(rows)),
		attribute.Int("directory.students", len(students)),
	)
	observability.DirectoryRefreshes().WithLabelValues("success").Inc()
	observability.DirectoryStudents().Set(float64(len(students)))
	observability.DirectoryRefreshedAt().Set(float64(next.refreshedAt.Unix()))

	event := s.logger.Info().
		Int("rows", len(rows)).
		Int("students", len(students)).
		Int("skipped_rows", len(rows)-len(students))
	if duplicates > 0 {
		event = event.Int("duplicate_names", duplicates)
	}
	event.Msg("student directory refreshed")

	return nil
}

func (s *directoryService) Lookup(name string) (models.Student, bool) {
	snap := s.current.Load()
	if snap == nil {
		return models.Student{}, false
	}
	i, ok := snap.index[models.NormalizeDisplayName(name)]
	if !ok {
		return models.Student{}, false
	}
	return snap.students[i], true
}

func (s *directoryService) Students() []models.Student {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	out := make([]models.Student, len(snap.students))
	copy(out, snap.students)
	return out
}

func (s *directoryService) Size() int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.students)
}

func (s *directoryService) LastRefreshed() time.Time {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.refreshedAt
}

// Start runs the periodic refresh loop until ctx is cancelled.
func (s *directoryService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshWithTimeout(ctx, "timer")
			}
		}
	}()
}

// ListenForTriggers subscribes to channel and refreshes on every message. It
// returns once the subscription is confirmed; the listener stops with ctx.
func (s *directoryService) ListenForTriggers(ctx context.Context, client *redis.Client, channel string) error {
	if client == nil {
		return errors.New("redis client is required")
	}
	if strings.TrimSpace(channel) == "" {
		return errors.New("refresh channel is required")
	}

	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	go func() {
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				s.logger.Info().Str("channel", msg.Channel).Msg("directory refresh requested")
				s.refreshWithTimeout(ctx, "trigger")
			}
		}
	}()

	return nil
}

func (s *directoryService) refreshWithTimeout(parent context.Context, source string) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	err := s.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshInProgress):
		s.logger.Debug().Str("source", source).Msg("directory refresh skipped")
	default:
		s.logger.Error().Err(err).Str("source", source).Int("students", s.Size()).Msg("directory refresh failed; keeping previous snapshot")
	}
}
