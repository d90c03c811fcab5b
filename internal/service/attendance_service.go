package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
)

// ErrStudentNotFound is returned when a display name is not in the directory.
var ErrStudentNotFound = errors.New("student not found")

// Absent block thresholds for the standing zones.
const (
	RedZoneAbsences    = 23
	YellowZoneAbsences = 12
)

// AttendanceService reads attendance for directory students.
type AttendanceService interface {
	GetAttendance(ctx context.Context, preferredName string) (dto.AttendanceResponse, error)
}

type attendanceService struct {
	directory DirectoryService
	repo      repository.AttendanceRepository
	cutoff    time.Time
	logger    zerolog.Logger
}

// NewAttendanceService builds the attendance reader. Only records dated after
// cutoff are returned.
func NewAttendanceService(directory DirectoryService, repo repository.AttendanceRepository, cutoff time.Time, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		directory: directory,
		repo:      repo,
		cutoff:    cutoff,
		logger:    logger.With().Str("component", "attendance_service").Logger(),
	}
}

func (s *attendanceService) GetAttendance(ctx context.Context, preferredName string) (dto.AttendanceResponse, error) {
	student, ok := s.directory.Lookup(preferredName)
	if !ok {
		return dto.AttendanceResponse{}, ErrStudentNotFound
	}

	tracer := otel.Tracer("github.com/noah-isme/student-portal-api/internal/service/attendance")
	ctx, span := tracer.Start(ctx, "attendance.get")
	span.SetAttributes(attribute.String("attendance.cutoff", s.cutoff.Format(models.DateLayout)))
	defer span.End()

	// The roster spelling is what the attendance table links against.
	records, err := s.repo.ListForStudent(ctx, repository.AttendanceQuery{
		PreferredName: student.PreferredName,
		After:         s.cutoff,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_attendance_failed")
		return dto.AttendanceResponse{}, fmt.Errorf("get attendance: %w", err)
	}

	records = selectRecords(records, s.cutoff)
	span.SetAttributes(attribute.Int("attendance.records", len(records)))

	s.logger.Debug().Str("student_id", student.StudentID).Int("records", len(records)).Msg("attendance loaded")

	return dto.AttendanceResponse{
		Success: true,
		Records: records,
		Summary: Summarize(records),
	}, nil
}

// selectRecords drops undated records and those on or before cutoff, then
// orders the rest newest first.
func selectRecords(records []models.AttendanceRecord, cutoff time.Time) []models.AttendanceRecord {
	kept := make([]models.AttendanceRecord, 0, len(records))
	for _, record := range records {
		if record.Day.IsZero() {
			continue
		}
		if !cutoff.IsZero() && !record.Day.After(cutoff) {
			continue
		}
		kept = append(kept, record)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Day.After(kept[j].Day)
	})
	return kept
}

// Summarize counts block statuses and assigns the standing zone.
func Summarize(records []models.AttendanceRecord) dto.AttendanceSummary {
	var summary dto.AttendanceSummary
	for _, record := range records {
		for _, block := range record.Blocks() {
			if block == nil || *block == "" {
				continue
			}
			summary.TotalBlocks++
			switch models.BlockKind(*block) {
			case models.BlockOnTime:
				summary.OnTimeBlocks++
			case models.BlockTardy:
				summary.TardyBlocks++
			case models.BlockAbsent:
				summary.AbsentBlocks++
			}
		}
	}

	if summary.TotalBlocks > 0 {
		rate := float64(summary.OnTimeBlocks) / float64(summary.TotalBlocks) * 100
		summary.AttendanceRate = int(math.Floor(rate + 0.5))
	}

	switch {
	case summary.AbsentBlocks >= RedZoneAbsences:
		summary.Zone = dto.ZoneRed
		summary.ZoneMessage = fmt.Sprintf("Critical: You have missed %d+ blocks", RedZoneAbsences)
	case summary.AbsentBlocks >= YellowZoneAbsences:
		summary.Zone = dto.ZoneYellow
		summary.ZoneMessage = fmt.Sprintf("Warning: You have missed %d+ blocks", YellowZoneAbsences)
	default:
		summary.Zone = dto.ZoneGreen
		summary.ZoneMessage = "Good standing"
	}

	return summary
}
