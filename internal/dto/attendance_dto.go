package dto

import "github.com/noah-isme/student-portal-api/internal/models"

// Standing zones derived from absent block counts.
const (
	ZoneGreen  = "green"
	ZoneYellow = "yellow"
	ZoneRed    = "red"
)

// AttendanceSummary aggregates block statuses across a student's records.
type AttendanceSummary struct {
	TotalBlocks    int    `json:"totalBlocks"`
	OnTimeBlocks   int    `json:"onTimeBlocks"`
	TardyBlocks    int    `json:"tardyBlocks"`
	AbsentBlocks   int    `json:"absentBlocks"`
	AttendanceRate int    `json:"attendanceRate"`
	Zone           string `json:"zone"`
	ZoneMessage    string `json:"zoneMessage"`
}

// AttendanceResponse is the attendance payload for one student.
type AttendanceResponse struct {
	Success bool                      `json:"success"`
	Records []models.AttendanceRecord `json:"records"`
	Summary AttendanceSummary         `json:"summary"`
}
