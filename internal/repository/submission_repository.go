package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	// MaxVersion returns the highest version recorded for the
	// (assignment, user) pair, 0 when none exist.
	MaxVersion(ctx context.Context, assignmentID, userID string) (int, error)
	GetLatest(ctx context.Context, assignmentID, userID string) (*models.SubmissionWithUser, error)
	ListByAssignment(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithUser, int, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.SubmissionWithAssignment, int, error)
	ListVersions(ctx context.Context, assignmentID, userID string) ([]models.Submission, error)
	Review(ctx context.Context, id string, score int, comment string, reviewedAt time.Time) error
	UpdateStatus(ctx context.Context, id, status string) error
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const submissionColumns = `
	id, assignment_id, user_id, version, archive_url, preview_url,
	score, comment, status, reviewed_at, folder_id, created_at, updated_at
`

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.AssignmentID,
		submission.UserID,
		submission.Version,
		submission.ArchiveURL,
		submission.PreviewURL,
		submission.Score,
		submission.Comment,
		submission.Status,
		submission.ReviewedAt,
		submission.FolderID,
		submission.CreatedAt,
		submission.UpdatedAt,
	)

	return err
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	submission := &models.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.UserID,
		&submission.Version,
		&submission.ArchiveURL,
		&submission.PreviewURL,
		&submission.Score,
		&submission.Comment,
		&submission.Status,
		&submission.ReviewedAt,
		&submission.FolderID,
		&submission.CreatedAt,
		&submission.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return submission, err
}

func (r *submissionRepository) MaxVersion(ctx context.Context, assignmentID, userID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(version), 0)
		FROM submissions
		WHERE assignment_id = $1 AND user_id = $2
	`

	var max int
	err := r.db.QueryRowContext(ctx, query, assignmentID, userID).Scan(&max)
	return max, err
}

func (r *submissionRepository) GetLatest(ctx context.Context, assignmentID, userID string) (*models.SubmissionWithUser, error) {
	query := `
		SELECT
			s.id, s.assignment_id, s.user_id, s.version, s.archive_url, s.preview_url,
			s.score, s.comment, s.status, s.reviewed_at, s.folder_id, s.created_at, s.updated_at,
			u.name as user_name, u.email as user_email,
			u.course_name, u.grade, u.student_number
		FROM submissions s
		JOIN users u ON s.user_id = u.id
		WHERE s.assignment_id = $1 AND s.user_id = $2
		ORDER BY s.version DESC
		LIMIT 1
	`

	submission := &models.SubmissionWithUser{}
	err := r.db.QueryRowContext(ctx, query, assignmentID, userID).Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.UserID,
		&submission.Version,
		&submission.ArchiveURL,
		&submission.PreviewURL,
		&submission.Score,
		&submission.Comment,
		&submission.Status,
		&submission.ReviewedAt,
		&submission.FolderID,
		&submission.CreatedAt,
		&submission.UpdatedAt,
		&submission.UserName,
		&submission.UserEmail,
		&submission.CourseName,
		&submission.Grade,
		&submission.StudentNumber,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return submission, err
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithUser, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE assignment_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, assignmentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			s.id, s.assignment_id, s.user_id, s.version, s.archive_url, s.preview_url,
			s.score, s.comment, s.status, s.reviewed_at, s.folder_id, s.created_at, s.updated_at,
			u.name as user_name, u.email as user_email,
			u.course_name, u.grade, u.student_number
		FROM submissions s
		JOIN users u ON s.user_id = u.id
		WHERE s.assignment_id = $1
		ORDER BY s.status, s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var submissions []models.SubmissionWithUser
	for rows.Next() {
		var s models.SubmissionWithUser
		err := rows.Scan(
			&s.ID,
			&s.AssignmentID,
			&s.UserID,
			&s.Version,
			&s.ArchiveURL,
			&s.PreviewURL,
			&s.Score,
			&s.Comment,
			&s.Status,
			&s.ReviewedAt,
			&s.FolderID,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.UserName,
			&s.UserEmail,
			&s.CourseName,
			&s.Grade,
			&s.StudentNumber,
		)
		if err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, s)
	}

	return submissions, total, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.SubmissionWithAssignment, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			s.id, s.assignment_id, s.user_id, s.version, s.archive_url, s.preview_url,
			s.score, s.comment, s.status, s.reviewed_at, s.folder_id, s.created_at, s.updated_at,
			a.title as assignment_title, a.due_date as assignment_due_date
		FROM submissions s
		JOIN assignments a ON s.assignment_id = a.id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var submissions []models.SubmissionWithAssignment
	for rows.Next() {
		var s models.SubmissionWithAssignment
		err := rows.Scan(
			&s.ID,
			&s.AssignmentID,
			&s.UserID,
			&s.Version,
			&s.ArchiveURL,
			&s.PreviewURL,
			&s.Score,
			&s.Comment,
			&s.Status,
			&s.ReviewedAt,
			&s.FolderID,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.AssignmentTitle,
			&s.AssignmentDueDate,
		)
		if err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, s)
	}

	return submissions, total, nil
}

func (r *submissionRepository) ListVersions(ctx context.Context, assignmentID, userID string) ([]models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE assignment_id = $1 AND user_id = $2
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []models.Submission
	for rows.Next() {
		var s models.Submission
		err := rows.Scan(
			&s.ID,
			&s.AssignmentID,
			&s.UserID,
			&s.Version,
			&s.ArchiveURL,
			&s.PreviewURL,
			&s.Score,
			&s.Comment,
			&s.Status,
			&s.ReviewedAt,
			&s.FolderID,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

func (r *submissionRepository) Review(ctx context.Context, id string, score int, comment string, reviewedAt time.Time) error {
	query := `
		UPDATE submissions
		SET score = $1, comment = $2, status = 'reviewed', reviewed_at = $3, updated_at = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(ctx, query, score, comment, reviewedAt, time.Now(), id)
	return err
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE submissions
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}
