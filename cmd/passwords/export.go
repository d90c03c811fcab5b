package main

import (
	"encoding/csv"
	"io"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
)

var csvHeader = []string{"Preferred Name", "Student ID", "Password"}

// export writes one CSV row per usable roster row, or only the row matching
// name when it is set. Passwords match what login accepts.
func export(out io.Writer, rows []models.RosterRow, deriver service.PasswordDeriver, name string) (int, error) {
	students := service.BuildStudents(rows, deriver)

	if name != "" {
		key := models.NormalizeDisplayName(name)
		var match []models.Student
		for _, student := range students {
			if models.NormalizeDisplayName(student.PreferredName) == key {
				match = []models.Student{student}
				break
			}
		}
		if match == nil {
			return 0, errStudentNotFound
		}
		students = match
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, student := range students {
		if err := writer.Write([]string{student.PreferredName, student.StudentID, student.Password}); err != nil {
			return 0, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, err
	}

	return len(students), nil
}
