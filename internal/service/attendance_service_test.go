package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/pkg/airtable"
)

func dayRecord(id, date string, blocks ...string) models.AttendanceRecord {
	day, _ := time.Parse(models.DateLayout, date)
	record := models.AttendanceRecord{ID: id, Date: strPtr(date), Day: day}
	slots := []**string{&record.BlockA, &record.BlockB, &record.BlockC, &record.BlockD}
	for i, block := range blocks {
		if block != "" {
			*slots[i] = strPtr(block)
		}
	}
	return record
}

func newAttendanceFixture(t *testing.T, repo *stubAttendanceRepo) AttendanceService {
	t.Helper()
	dir := NewDirectoryService(&stubRoster{rows: sampleRoster()}, stubDeriver{}, DirectoryOptions{}, testLogger())
	require.NoError(t, dir.Refresh(context.Background()))
	cutoff := time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)
	return NewAttendanceService(dir, repo, cutoff, testLogger())
}

func TestGetAttendanceUnknownStudent(t *testing.T) {
	repo := &stubAttendanceRepo{}
	svc := newAttendanceFixture(t, repo)

	_, err := svc.GetAttendance(context.Background(), "Unknown")
	require.ErrorIs(t, err, ErrStudentNotFound)
	require.Empty(t, repo.lastQuery.PreferredName)
}

func TestGetAttendanceFiltersAndSorts(t *testing.T) {
	undated := models.AttendanceRecord{ID: "undated"}
	repo := &stubAttendanceRepo{records: []models.AttendanceRecord{
		dayRecord("r1", "2025-09-10", "On Time"),
		dayRecord("r2", "2025-09-07", "Absent"),
		dayRecord("r3", "2025-10-01", "Tardy (5 min)"),
		undated,
		dayRecord("r4", "2025-09-01", "On Time"),
		dayRecord("r5", "2025-09-20", "On Time"),
	}}
	svc := newAttendanceFixture(t, repo)

	resp, err := svc.GetAttendance(context.Background(), " tamara ")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "Tamara", repo.lastQuery.PreferredName)
	require.Equal(t, "2025-09-07", repo.lastQuery.After.Format(models.DateLayout))

	ids := make([]string, 0, len(resp.Records))
	for _, record := range resp.Records {
		ids = append(ids, record.ID)
	}
	require.Equal(t, []string{"r3", "r5", "r1"}, ids)
	require.Equal(t, 3, resp.Summary.TotalBlocks)
}

func TestGetAttendanceEmptyIsNotAnError(t *testing.T) {
	svc := newAttendanceFixture(t, &stubAttendanceRepo{})

	resp, err := svc.GetAttendance(context.Background(), "Jon")
	require.NoError(t, err)
	require.NotNil(t, resp.Records)
	require.Empty(t, resp.Records)
	require.Equal(t, dto.ZoneGreen, resp.Summary.Zone)
}

func TestGetAttendanceSurfacesUpstreamErrors(t *testing.T) {
	upstream := &airtable.APIError{Table: "Attendance", StatusCode: 503, Message: "Service Unavailable"}
	svc := newAttendanceFixture(t, &stubAttendanceRepo{err: upstream})

	_, err := svc.GetAttendance(context.Background(), "Tamara")
	require.Error(t, err)

	var apiErr *airtable.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 503, apiErr.StatusCode)
}

func TestSummarizeCountsBlocks(t *testing.T) {
	records := []models.AttendanceRecord{
		dayRecord("r1", "2025-10-01", "On Time", "Tardy (5 min)", "Absent (20+ minutes late)", ""),
		dayRecord("r2", "2025-10-02", "On Time", "On Time", "Excused", ""),
	}

	summary := Summarize(records)
	require.Equal(t, 6, summary.TotalBlocks)
	require.Equal(t, 3, summary.OnTimeBlocks)
	require.Equal(t, 1, summary.TardyBlocks)
	require.Equal(t, 1, summary.AbsentBlocks)
	require.Equal(t, 50, summary.AttendanceRate)
	require.Equal(t, dto.ZoneGreen, summary.Zone)
	require.Equal(t, "Good standing", summary.ZoneMessage)
}

func TestSummarizeRoundsRate(t *testing.T) {
	records := []models.AttendanceRecord{
		dayRecord("r1", "2025-10-01", "On Time", "On Time", "Tardy"),
	}
	require.Equal(t, 67, Summarize(records).AttendanceRate)
	require.Equal(t, 0, Summarize(nil).AttendanceRate)
}

func TestSummarizeZones(t *testing.T) {
	build := func(absent int) []models.AttendanceRecord {
		records := make([]models.AttendanceRecord, 0, absent)
		for i := 0; i < absent; i++ {
			records = append(records, dayRecord("r", "2025-10-01", "Absent"))
		}
		return records
	}

	require.Equal(t, dto.ZoneGreen, Summarize(build(11)).Zone)
	require.Equal(t, dto.ZoneYellow, Summarize(build(12)).Zone)
	require.Equal(t, "Warning: You have missed 12+ blocks", Summarize(build(22)).ZoneMessage)
	require.Equal(t, dto.ZoneRed, Summarize(build(23)).Zone)
	require.Equal(t, "Critical: You have missed 23+ blocks", Summarize(build(40)).ZoneMessage)
}
