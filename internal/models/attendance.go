package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used by the attendance table.
const DateLayout = "2006-01-02"

// Block status values recognised when summarising attendance.
const (
	BlockOnTime = "On Time"
	BlockTardy  = "Tardy"
	BlockAbsent = "Absent"
)

// AttendanceRecord is one day of attendance for a student. A nil block means
// the block did not apply that day.
type AttendanceRecord struct {
	ID     string  `json:"id"`
	Date   *string `json:"date"`
	Course *string `json:"course"`
	BlockA *string `json:"blockA"`
	BlockB *string `json:"blockB"`
	BlockC *string `json:"blockC"`
	BlockD *string `json:"blockD"`

	Day time.Time `json:"-"`
}

// Blocks returns the four block statuses in A-D order.
func (r AttendanceRecord) Blocks() []*string {
	return []*string{r.BlockA, r.BlockB, r.BlockC, r.BlockD}
}

// BlockKind classifies a block status as on-time, tardy, absent, or "" for
// statuses outside those three.
func BlockKind(status string) string {
	switch {
	case status == BlockOnTime:
		return BlockOnTime
	case strings.Contains(status, BlockTardy):
		return BlockTardy
	case strings.Contains(status, BlockAbsent):
		return BlockAbsent
	default:
		return ""
	}
}
