package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.AssignmentWithStats, int, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const assignmentColumns = `
	id, title, description, due_date, year, type, category, tags,
	evaluation_criteria, max_score, passing_score,
	is_group_assignment, max_group_size, min_group_size,
	is_public, published_at, status, created_by_id, created_at, updated_at
`

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.Title,
		assignment.Description,
		assignment.DueDate,
		assignment.Year,
		assignment.Type,
		assignment.Category,
		pq.Array(assignment.Tags),
		assignment.EvaluationCriteria,
		assignment.MaxScore,
		assignment.PassingScore,
		assignment.IsGroupAssignment,
		assignment.MaxGroupSize,
		assignment.MinGroupSize,
		assignment.IsPublic,
		assignment.PublishedAt,
		assignment.Status,
		assignment.CreatedByID,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	assignment := &models.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&assignment.ID,
		&assignment.Title,
		&assignment.Description,
		&assignment.DueDate,
		&assignment.Year,
		&assignment.Type,
		&assignment.Category,
		pq.Array(&assignment.Tags),
		&assignment.EvaluationCriteria,
		&assignment.MaxScore,
		&assignment.PassingScore,
		&assignment.IsGroupAssignment,
		&assignment.MaxGroupSize,
		&assignment.MinGroupSize,
		&assignment.IsPublic,
		&assignment.PublishedAt,
		&assignment.Status,
		&assignment.CreatedByID,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (r *assignmentRepository) GetAll(ctx context.Context, limit, offset int) ([]models.AssignmentWithStats, int, error) {
	countQuery := `SELECT COUNT(*) FROM assignments`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			a.id, a.title, a.description, a.due_date, a.year, a.type, a.category, a.tags,
			a.evaluation_criteria, a.max_score, a.passing_score,
			a.is_group_assignment, a.max_group_size, a.min_group_size,
			a.is_public, a.published_at, a.status, a.created_by_id, a.created_at, a.updated_at,
			COUNT(s.id) as total_submissions,
			COUNT(CASE WHEN s.status = 'reviewed' THEN 1 END) as reviewed_submissions,
			COUNT(CASE WHEN s.status IN ('draft', 'submitted') THEN 1 END) as pending_submissions
		FROM assignments a
		LEFT JOIN submissions s ON a.id = s.assignment_id
		GROUP BY a.id
		ORDER BY a.status, a.due_date DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assignments []models.AssignmentWithStats
	for rows.Next() {
		var a models.AssignmentWithStats
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Description,
			&a.DueDate,
			&a.Year,
			&a.Type,
			&a.Category,
			pq.Array(&a.Tags),
			&a.EvaluationCriteria,
			&a.MaxScore,
			&a.PassingScore,
			&a.IsGroupAssignment,
			&a.MaxGroupSize,
			&a.MinGroupSize,
			&a.IsPublic,
			&a.PublishedAt,
			&a.Status,
			&a.CreatedByID,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.TotalSubmissions,
			&a.ReviewedSubmissions,
			&a.PendingSubmissions,
		)
		if err != nil {
			return nil, 0, err
		}
		assignments = append(assignments, a)
	}

	return assignments, total, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	query := `
		UPDATE assignments
		SET title = $1, description = $2, due_date = $3, year = $4, type = $5,
			category = $6, tags = $7, evaluation_criteria = $8,
			max_score = $9, passing_score = $10,
			is_group_assignment = $11, max_group_size = $12, min_group_size = $13,
			is_public = $14, published_at = $15, status = $16, updated_at = $17
		WHERE id = $18
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.Title,
		assignment.Description,
		assignment.DueDate,
		assignment.Year,
		assignment.Type,
		assignment.Category,
		pq.Array(assignment.Tags),
		assignment.EvaluationCriteria,
		assignment.MaxScore,
		assignment.PassingScore,
		assignment.IsGroupAssignment,
		assignment.MaxGroupSize,
		assignment.MinGroupSize,
		assignment.IsPublic,
		assignment.PublishedAt,
		assignment.Status,
		assignment.UpdatedAt,
		assignment.ID,
	)

	return err
}

func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM assignments WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *assignmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM assignments WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}
