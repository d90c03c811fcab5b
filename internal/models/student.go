package models

import "strings"

// RosterRow is one raw record from the students table.
type RosterRow struct {
	RecordID      string
	PreferredName string
	// Name is free text, usually "S022 - Full Name".
	Name      any
	StudentID string

	CurrentCourse string
	PercentMissed MissedPercentages
}

// MissedPercentages is the share of blocks missed per course track, as
// computed by the roster table. Nil means the roster has no value.
type MissedPercentages struct {
	Frontend   *float64
	Backend    *float64
	Foundation *float64
}

// Student is a directory entry. Password is derived, never persisted.
type Student struct {
	PreferredName string
	StudentID     string
	Password      string

	CurrentCourse string
	PercentMissed MissedPercentages
}

// Profile returns the fields that are safe to expose to clients.
func (s Student) Profile() StudentProfile {
	return StudentProfile{PreferredName: s.PreferredName, StudentID: s.StudentID}
}

// StudentProfile is the non-secret view of a Student.
type StudentProfile struct {
	PreferredName string `json:"preferredName"`
	StudentID     string `json:"studentId"`
}

// NormalizeDisplayName is the key used for case-insensitive name matching.
func NormalizeDisplayName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
