package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
)

// ErrClassNotFound is returned when no directory student is enrolled in a course.
var ErrClassNotFound = errors.New("class not found")

const defaultClassReportConcurrency = 4

// RosterService answers profile and class questions from the directory.
type RosterService interface {
	Profile(preferredName string) (dto.StudentProfileDetails, error)
	Classes() []string
	ClassReport(ctx context.Context, class string) (dto.ClassReportResponse, error)
}

type rosterService struct {
	directory   DirectoryService
	attendance  repository.AttendanceRepository
	cutoff      time.Time
	concurrency int
	logger      zerolog.Logger
}

// NewRosterService builds the roster reader. Class reports fetch attendance
// for up to concurrency students at a time; values below one use the default.
func NewRosterService(directory DirectoryService, attendance repository.AttendanceRepository, cutoff time.Time, concurrency int, logger zerolog.Logger) RosterService {
	if concurrency <= 0 {
		concurrency = defaultClassReportConcurrency
	}
	return &rosterService{
		directory:   directory,
		attendance:  attendance,
		cutoff:      cutoff,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) Profile(preferredName string) (dto.StudentProfileDetails, error) {
	student, ok := s.directory.Lookup(preferredName)
	if !ok {
		return dto.StudentProfileDetails{}, ErrStudentNotFound
	}

	profile := dto.StudentProfileDetails{
		PreferredName:    student.PreferredName,
		PercentMissedFE:  student.PercentMissed.Frontend,
		PercentMissedBE:  student.PercentMissed.Backend,
		PercentMissedTCF: student.PercentMissed.Foundation,
	}
	if student.CurrentCourse != "" {
		course := student.CurrentCourse
		profile.CurrentCourse = &course
	}
	return profile, nil
}

func (s *rosterService) Classes() []string {
	seen := make(map[string]struct{})
	classes := make([]string, 0)
	for _, student := range s.directory.Students() {
		if student.CurrentCourse == "" {
			continue
		}
		key := strings.ToLower(student.CurrentCourse)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		classes = append(classes, student.CurrentCourse)
	}
	sort.Strings(classes)
	return classes
}

func (s *rosterService) ClassReport(ctx context.Context, class string) (dto.ClassReportResponse, error) {
	class = strings.TrimSpace(class)
	members := s.members(class)
	if len(members) == 0 {
		return dto.ClassReportResponse{}, ErrClassNotFound
	}

	tracer := otel.Tracer("github.com/noah-isme/student-portal-api/internal/service/roster")
	ctx, span := tracer.Start(ctx, "roster.class_report")
	span.SetAttributes(
		attribute.String("roster.class", class),
		attribute.Int("roster.students", len(members)),
	)
	defer span.End()

	rows := make([]dto.ClassStudentSummary, len(members))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i, student := range members {
		group.Go(func() error {
			records, err := s.attendance.ListForStudent(groupCtx, repository.AttendanceQuery{
				PreferredName: student.PreferredName,
				After:         s.cutoff,
			})
			if err != nil {
				return fmt.Errorf("attendance for %s: %w", student.StudentID, err)
			}

			summary := Summarize(selectRecords(records, s.cutoff))
			rows[i] = dto.ClassStudentSummary{
				PreferredName:  student.PreferredName,
				Absences:       summary.AbsentBlocks,
				Tardies:        summary.TardyBlocks,
				TotalBlocks:    summary.TotalBlocks,
				AttendanceRate: summary.AttendanceRate,
				Zone:           summary.Zone,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class_report_failed")
		return dto.ClassReportResponse{}, fmt.Errorf("class report: %w", err)
	}

	s.logger.Debug().Str("class", class).Int("students", len(rows)).Msg("class report built")

	return dto.ClassReportResponse{Success: true, Class: members[0].CurrentCourse, Students: rows}, nil
}

// members returns the students enrolled in class, ordered by display name.
func (s *rosterService) members(class string) []models.Student {
	if class == "" {
		return nil
	}

	var members []models.Student
	for _, student := range s.directory.Students() {
		if strings.EqualFold(student.CurrentCourse, class) {
			members = append(members, student)
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return models.NormalizeDisplayName(members[i].PreferredName) < models.NormalizeDisplayName(members[j].PreferredName)
	})
	return members
}
