package models

import (
	"time"
)

type User struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Role           Role      `json:"role" db:"role"`
	CourseName     *string   `json:"course_name,omitempty" db:"course_name"`
	Grade          *int      `json:"grade,omitempty" db:"grade"`
	StudentNumber  *int      `json:"student_number,omitempty" db:"student_number"`
	EnrollmentYear *int      `json:"enrollment_year,omitempty" db:"enrollment_year"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// HasCompleteProfile reports whether the user carries everything the
// storage mirror needs to build its folder path.
func (u *User) HasCompleteProfile() bool {
	return u.Name != "" && u.Grade != nil && u.StudentNumber != nil
}

// StudentSummary is the teacher-facing roster line: per-student submission
// activity aggregated across all assignments.
type StudentSummary struct {
	ID               string     `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Grade            *int       `json:"grade,omitempty" db:"grade"`
	StudentNumber    *int       `json:"student_number,omitempty" db:"student_number"`
	TotalSubmissions int        `json:"total_submissions" db:"total_submissions"`
	AverageScore     *float64   `json:"average_score,omitempty" db:"average_score"`
	LastSubmittedAt  *time.Time `json:"last_submitted_at,omitempty" db:"last_submitted_at"`
}
