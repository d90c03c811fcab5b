package dto

// StudentProfileDetails is the course standing shown on the student dashboard.
type StudentProfileDetails struct {
	PreferredName    string   `json:"preferredName"`
	CurrentCourse    *string  `json:"currentCourse"`
	PercentMissedFE  *float64 `json:"percentMissedFE"`
	PercentMissedBE  *float64 `json:"percentMissedBE"`
	PercentMissedTCF *float64 `json:"percentMissedTCF"`
}

// StudentProfileResponse wraps a student's profile.
type StudentProfileResponse struct {
	Success bool                  `json:"success"`
	Profile StudentProfileDetails `json:"profile"`
}

// ClassListResponse lists the courses present in the roster.
type ClassListResponse struct {
	Success bool     `json:"success"`
	Classes []string `json:"classes"`
}

// ClassStudentSummary is one row of the instructor class report.
type ClassStudentSummary struct {
	PreferredName  string `json:"preferredName"`
	Absences       int    `json:"absences"`
	Tardies        int    `json:"tardies"`
	TotalBlocks    int    `json:"totalBlocks"`
	AttendanceRate int    `json:"attendanceRate"`
	Zone           string `json:"zone"`
}

// ClassReportResponse is the attendance summary for every student in a course.
type ClassReportResponse struct {
	Success  bool                  `json:"success"`
	Class    string                `json:"class"`
	Students []ClassStudentSummary `json:"students"`
}
