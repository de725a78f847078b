package models

import (
	"time"
)

type Submission struct {
	ID           string     `json:"id" db:"id"`
	AssignmentID string     `json:"assignment_id" db:"assignment_id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Version      int        `json:"version" db:"version"`
	ArchiveURL   string     `json:"archive_url" db:"archive_url"`
	PreviewURL   *string    `json:"preview_url,omitempty" db:"preview_url"`
	Score        *int       `json:"score,omitempty" db:"score"`
	Comment      *string    `json:"comment,omitempty" db:"comment"`
	Status       string     `json:"status" db:"status"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	FolderID     *string    `json:"folder_id,omitempty" db:"folder_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// SubmissionWithUser joins the submitter's profile for teacher-facing lists.
type SubmissionWithUser struct {
	Submission
	UserName      string  `json:"user_name" db:"user_name"`
	UserEmail     string  `json:"user_email" db:"user_email"`
	CourseName    *string `json:"course_name,omitempty" db:"course_name"`
	Grade         *int    `json:"grade,omitempty" db:"grade"`
	StudentNumber *int    `json:"student_number,omitempty" db:"student_number"`
}

// SubmissionWithAssignment joins assignment basics for a student's history view.
type SubmissionWithAssignment struct {
	Submission
	AssignmentTitle   string    `json:"assignment_title" db:"assignment_title"`
	AssignmentDueDate time.Time `json:"assignment_due_date" db:"assignment_due_date"`
}

type SubmissionStatus string

const (
	SubmissionStatusDraft     SubmissionStatus = "draft"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusReviewed  SubmissionStatus = "reviewed"
	SubmissionStatusArchived  SubmissionStatus = "archived"
)

func (s SubmissionStatus) String() string {
	return string(s)
}

func IsValidSubmissionStatus(status string) bool {
	switch status {
	case "draft", "submitted", "reviewed", "archived":
		return true
	default:
		return false
	}
}
