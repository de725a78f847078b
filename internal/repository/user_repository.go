package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Exists(ctx context.Context, id string) (bool, error)
	ListIDsByRole(ctx context.Context, role models.Role) ([]string, error)
	GetStudentSummaries(ctx context.Context) ([]models.StudentSummary, error)
}

type userRepository struct {
	*PostgresRepository
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) UserRepository {
	return &userRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, role, course_name, grade, student_number, enrollment_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role.String(),
		user.CourseName,
		user.Grade,
		user.StudentNumber,
		user.EnrollmentYear,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, role, course_name, grade, student_number, enrollment_year, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, role, course_name, grade, student_number, enrollment_year, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&role,
		&user.CourseName,
		&user.Grade,
		&user.StudentNumber,
		&user.EnrollmentYear,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	return user, nil
}

func (r *userRepository) GetAll(ctx context.Context, limit, offset int) ([]models.User, int, error) {
	countQuery := `SELECT COUNT(*) FROM users`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, email, role, course_name, grade, student_number, enrollment_year, created_at, updated_at
		FROM users
		ORDER BY role, grade, student_number, name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var role string
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&role,
			&user.CourseName,
			&user.Grade,
			&user.StudentNumber,
			&user.EnrollmentYear,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		user.Role = models.Role(role)
		users = append(users, user)
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, course_name = $2, grade = $3, student_number = $4, enrollment_year = $5, updated_at = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.CourseName,
		user.Grade,
		user.StudentNumber,
		user.EnrollmentYear,
		user.UpdatedAt,
		user.ID,
	)

	return err
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *userRepository) ListIDsByRole(ctx context.Context, role models.Role) ([]string, error) {
	query := `SELECT id FROM users WHERE role = $1`

	rows, err := r.db.QueryContext(ctx, query, role.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *userRepository) GetStudentSummaries(ctx context.Context) ([]models.StudentSummary, error) {
	query := `
		SELECT
			u.id, u.name, u.grade, u.student_number,
			COUNT(s.id) as total_submissions,
			AVG(s.score) as average_score,
			MAX(s.created_at) as last_submitted_at
		FROM users u
		LEFT JOIN submissions s ON u.id = s.user_id
		WHERE u.role = 'student'
		GROUP BY u.id
		ORDER BY u.grade, u.student_number
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.StudentSummary
	for rows.Next() {
		var s models.StudentSummary
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Grade,
			&s.StudentNumber,
			&s.TotalSubmissions,
			&s.AverageScore,
			&s.LastSubmittedAt,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
