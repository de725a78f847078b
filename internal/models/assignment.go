package models

import (
	"time"
)

type Assignment struct {
	ID                 string     `json:"id" db:"id"`
	Title              string     `json:"title" db:"title"`
	Description        *string    `json:"description,omitempty" db:"description"`
	DueDate            time.Time  `json:"due_date" db:"due_date"`
	Year               int        `json:"year" db:"year"`
	Type               string     `json:"type" db:"type"`
	Category           *string    `json:"category,omitempty" db:"category"`
	Tags               []string   `json:"tags" db:"tags"`
	EvaluationCriteria *string    `json:"evaluation_criteria,omitempty" db:"evaluation_criteria"`
	MaxScore           *int       `json:"max_score,omitempty" db:"max_score"`
	PassingScore       *int       `json:"passing_score,omitempty" db:"passing_score"`
	IsGroupAssignment  bool       `json:"is_group_assignment" db:"is_group_assignment"`
	MaxGroupSize       *int       `json:"max_group_size,omitempty" db:"max_group_size"`
	MinGroupSize       *int       `json:"min_group_size,omitempty" db:"min_group_size"`
	IsPublic           bool       `json:"is_public" db:"is_public"`
	PublishedAt        *time.Time `json:"published_at,omitempty" db:"published_at"`
	Status             string     `json:"status" db:"status"`
	CreatedByID        *string    `json:"created_by_id,omitempty" db:"created_by_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

type AssignmentWithStats struct {
	Assignment
	TotalSubmissions    int `json:"total_submissions" db:"total_submissions"`
	ReviewedSubmissions int `json:"reviewed_submissions" db:"reviewed_submissions"`
	PendingSubmissions  int `json:"pending_submissions" db:"pending_submissions"`
}

type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "draft"
	AssignmentStatusPublished AssignmentStatus = "published"
	AssignmentStatusClosed    AssignmentStatus = "closed"
	AssignmentStatusArchived  AssignmentStatus = "archived"
)

func IsValidAssignmentStatus(status string) bool {
	switch status {
	case "draft", "published", "closed", "archived":
		return true
	default:
		return false
	}
}

type AssignmentType string

const (
	AssignmentTypeReport       AssignmentType = "report"
	AssignmentTypePresentation AssignmentType = "presentation"
	AssignmentTypeTest         AssignmentType = "test"
	AssignmentTypeProject      AssignmentType = "project"
	AssignmentTypeOther        AssignmentType = "other"
)

func IsValidAssignmentType(t string) bool {
	switch t {
	case "report", "presentation", "test", "project", "other":
		return true
	default:
		return false
	}
}
