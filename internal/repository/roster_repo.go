package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/pkg/airtable"
)

// Roster field names in the students table.
const (
	FieldPreferredName = "Preferred Name"
	FieldName          = "Name"
	FieldStudentID     = "StudentID"

	FieldCurrentCourse    = "Current Course"
	FieldPercentMissedFE  = "% Missed FE"
	FieldPercentMissedBE  = "% Missed BE"
	FieldPercentMissedTCF = "% Missed TCF"
)

// RecordLister is the subset of the Airtable client used by repositories.
type RecordLister interface {
	ListRecords(ctx context.Context, table string, opts airtable.ListOptions) ([]airtable.Record, error)
}

// RosterRepository reads the full student roster.
type RosterRepository interface {
	List(ctx context.Context) ([]models.RosterRow, error)
}

type rosterRepository struct {
	source RecordLister
	table  string
	view   string
}

// NewRosterRepository constructs an Airtable backed roster repository.
func NewRosterRepository(source RecordLister, table, view string) RosterRepository {
	if strings.TrimSpace(table) == "" {
		table = "Students"
	}
	return &rosterRepository{source: source, table: table, view: view}
}

func (r *rosterRepository) List(ctx context.Context) ([]models.RosterRow, error) {
	records, err := r.source.ListRecords(ctx, r.table, airtable.ListOptions{View: r.view})
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	rows := make([]models.RosterRow, 0, len(records))
	for _, record := range records {
		preferred, _ := record.Text(FieldPreferredName)
		studentID, _ := record.Text(FieldStudentID)
		course, _ := record.Text(FieldCurrentCourse)
		rows = append(rows, models.RosterRow{
			RecordID:      record.ID,
			PreferredName: preferred,
			Name:          record.Fields[FieldName],
			StudentID:     studentID,
			CurrentCourse: course,
			PercentMissed: models.MissedPercentages{
				Frontend:   optionalNumber(record, FieldPercentMissedFE),
				Backend:    optionalNumber(record, FieldPercentMissedBE),
				Foundation: optionalNumber(record, FieldPercentMissedTCF),
			},
		})
	}

	return rows, nil
}

// optionalNumber reads a numeric field. Formula fields may arrive as text
// such as "4.5%", which is accepted too.
func optionalNumber(record airtable.Record, field string) *float64 {
	text, ok := record.Text(field)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%")), 64)
	if err != nil {
		return nil
	}
	return &value
}
