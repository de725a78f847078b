package models

import "time"

// Data Transfer Objects

// FilePayload carries one uploaded file through the submission flow.
type FilePayload struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"-"`
}

type SubmitRequest struct {
	AssignmentID string       `json:"assignment_id"`
	Archive      FilePayload  `json:"archive"`
	Preview      *FilePayload `json:"preview,omitempty"`
	IsDraft      bool         `json:"is_draft"`
}

type SubmitResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Status    string    `json:"status"`
	FolderID  string    `json:"folder_id,omitempty"`
	Mirror    string    `json:"mirror"`
	FileIDs   []string  `json:"file_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

type UpdateSubmissionStatusRequest struct {
	Status string `json:"status"`
}

type AssignmentInput struct {
	Title              string     `json:"title"`
	Description        *string    `json:"description,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	Year               *int       `json:"year,omitempty"`
	Type               *string    `json:"type,omitempty"`
	Category           *string    `json:"category,omitempty"`
	Tags               []string   `json:"tags,omitempty"`
	EvaluationCriteria *string    `json:"evaluation_criteria,omitempty"`
	MaxScore           *int       `json:"max_score,omitempty"`
	PassingScore       *int       `json:"passing_score,omitempty"`
	IsGroupAssignment  *bool      `json:"is_group_assignment,omitempty"`
	MaxGroupSize       *int       `json:"max_group_size,omitempty"`
	MinGroupSize       *int       `json:"min_group_size,omitempty"`
	IsPublic           *bool      `json:"is_public,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	Status             *string    `json:"status,omitempty"`
}

type CreateUserRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	CourseName     *string `json:"course_name,omitempty"`
	Grade          *int    `json:"grade,omitempty"`
	StudentNumber  *int    `json:"student_number,omitempty"`
	EnrollmentYear *int    `json:"enrollment_year,omitempty"`
}

type UpdateUserRequest struct {
	Name           *string `json:"name,omitempty"`
	CourseName     *string `json:"course_name,omitempty"`
	Grade          *int    `json:"grade,omitempty"`
	StudentNumber  *int    `json:"student_number,omitempty"`
	EnrollmentYear *int    `json:"enrollment_year,omitempty"`
}

type SubmissionsResponse struct {
	Submissions []SubmissionWithUser `json:"submissions"`
	Total       int                  `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

type OwnSubmissionsResponse struct {
	Submissions []SubmissionWithAssignment `json:"submissions"`
	Total       int                        `json:"total"`
	Page        int                        `json:"page"`
	Limit       int                        `json:"limit"`
}

type SubmissionHistoryResponse struct {
	AssignmentTitle string       `json:"assignment_title"`
	Submissions     []Submission `json:"submissions"`
}
