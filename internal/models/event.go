package models

type SubmissionReceivedEvent struct {
	SubmissionID string `json:"submission_id"`
	AssignmentID string `json:"assignment_id"`
	UserID       string `json:"user_id"`
	Version      int    `json:"version"`
	Status       string `json:"status"`
	Timestamp    int64  `json:"timestamp"`
}

type SubmissionReviewedEvent struct {
	SubmissionID string `json:"submission_id"`
	AssignmentID string `json:"assignment_id"`
	UserID       string `json:"user_id"`
	Score        int    `json:"score"`
	Timestamp    int64  `json:"timestamp"`
}
