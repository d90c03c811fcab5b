package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/pkg/airtable"
)

// Attendance field names in the attendance table.
const (
	FieldDate   = "Date"
	FieldBlockA = "Block A"
	FieldBlockB = "Block B"
	FieldBlockC = "Block C"
	FieldBlockD = "Block D"
)

// AttendanceQuery selects one student's attendance after a cutoff date.
type AttendanceQuery struct {
	PreferredName string
	After         time.Time
}

// AttendanceRepository reads attendance rows for a student.
type AttendanceRepository interface {
	ListForStudent(ctx context.Context, query AttendanceQuery) ([]models.AttendanceRecord, error)
}

// AttendanceTable describes where attendance rows live.
type AttendanceTable struct {
	Table       string
	View        string
	NameField   string
	CourseField string
}

type attendanceRepository struct {
	source RecordLister
	table  AttendanceTable
}

// NewAttendanceRepository constructs an Airtable backed attendance repository.
func NewAttendanceRepository(source RecordLister, table AttendanceTable) AttendanceRepository {
	if table.Table == "" {
		table.Table = "Attendance"
	}
	if table.NameField == "" {
		table.NameField = "PreferredNameText"
	}
	if table.CourseField == "" {
		table.CourseField = "Current Course (from Student)"
	}
	return &attendanceRepository{source: source, table: table}
}

func (r *attendanceRepository) ListForStudent(ctx context.Context, query AttendanceQuery) ([]models.AttendanceRecord, error) {
	opts := airtable.ListOptions{
		View:            r.table.View,
		FilterByFormula: r.filterFormula(query),
		Sort:            []airtable.Sort{{Field: FieldDate, Direction: airtable.Descending}},
	}

	records, err := r.source.ListRecords(ctx, r.table.Table, opts)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	result := make([]models.AttendanceRecord, 0, len(records))
	for _, record := range records {
		result = append(result, r.mapRecord(record))
	}
	return result, nil
}

func (r *attendanceRepository) filterFormula(query AttendanceQuery) string {
	name := airtable.EscapeFormulaString(query.PreferredName)
	if query.After.IsZero() {
		return fmt.Sprintf("{%s}='%s'", r.table.NameField, name)
	}
	return fmt.Sprintf("AND({%s}='%s', IS_AFTER({%s}, '%s'))",
		r.table.NameField, name, FieldDate, query.After.Format(models.DateLayout))
}

func (r *attendanceRepository) mapRecord(record airtable.Record) models.AttendanceRecord {
	mapped := models.AttendanceRecord{
		ID:     record.ID,
		Course: optionalText(record, r.table.CourseField),
		BlockA: blockStatus(record, FieldBlockA),
		BlockB: blockStatus(record, FieldBlockB),
		BlockC: blockStatus(record, FieldBlockC),
		BlockD: blockStatus(record, FieldBlockD),
	}

	if raw, ok := record.Text(FieldDate); ok {
		if day, ok := ParseDay(raw); ok {
			date := day.Format(models.DateLayout)
			mapped.Date = &date
			mapped.Day = day
		}
	}

	return mapped
}

// ParseDay accepts a calendar date or an ISO timestamp and returns the day.
func ParseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(models.DateLayout) {
		return time.Time{}, false
	}
	day, err := time.Parse(models.DateLayout, raw[:len(models.DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func optionalText(record airtable.Record, field string) *string {
	value, ok := record.Text(field)
	if !ok {
		return nil
	}
	return &value
}

// blockStatus keeps an empty status as "" so clients can tell a blank cell
// from a block that is missing entirely.
func blockStatus(record airtable.Record, field string) *string {
	if value, ok := record.Fields[field].(string); ok {
		return &value
	}
	return optionalText(record, field)
}
