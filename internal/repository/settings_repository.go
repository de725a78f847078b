package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
)

type SettingsRepository interface {
	// Get returns nil when the singleton row has never been written.
	Get(ctx context.Context) (*models.SystemSettings, error)
	Upsert(ctx context.Context, settings *models.SystemSettings) error
}

type settingsRepository struct {
	*PostgresRepository
}

func NewSettingsRepository(db *sql.DB, logger zerolog.Logger) SettingsRepository {
	return &settingsRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *settingsRepository) Get(ctx context.Context) (*models.SystemSettings, error) {
	query := `
		SELECT id, system_name, system_description, default_course_name, available_grades,
			enable_email_notifications, enable_auto_grading, max_file_size_mb,
			allowed_file_types, root_folder, updated_at
		FROM system_settings
		WHERE id = $1
	`

	settings := &models.SystemSettings{}
	var grades []int64
	err := r.db.QueryRowContext(ctx, query, models.SystemSettingsID).Scan(
		&settings.ID,
		&settings.SystemName,
		&settings.SystemDescription,
		&settings.DefaultCourseName,
		pq.Array(&grades),
		&settings.EnableEmailNotifications,
		&settings.EnableAutoGrading,
		&settings.MaxFileSizeMB,
		pq.Array(&settings.AllowedFileTypes),
		&settings.RootFolder,
		&settings.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	settings.AvailableGrades = make([]int, len(grades))
	for i, g := range grades {
		settings.AvailableGrades[i] = int(g)
	}

	return settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.SystemSettings) error {
	query := `
		INSERT INTO system_settings (
			id, system_name, system_description, default_course_name, available_grades,
			enable_email_notifications, enable_auto_grading, max_file_size_mb,
			allowed_file_types, root_folder, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			system_name = EXCLUDED.system_name,
			system_description = EXCLUDED.system_description,
			default_course_name = EXCLUDED.default_course_name,
			available_grades = EXCLUDED.available_grades,
			enable_email_notifications = EXCLUDED.enable_email_notifications,
			enable_auto_grading = EXCLUDED.enable_auto_grading,
			max_file_size_mb = EXCLUDED.max_file_size_mb,
			allowed_file_types = EXCLUDED.allowed_file_types,
			root_folder = EXCLUDED.root_folder,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		models.SystemSettingsID,
		settings.SystemName,
		settings.SystemDescription,
		settings.DefaultCourseName,
		pq.Array(settings.AvailableGrades),
		settings.EnableEmailNotifications,
		settings.EnableAutoGrading,
		settings.MaxFileSizeMB,
		pq.Array(settings.AllowedFileTypes),
		settings.RootFolder,
		time.Now(),
	)

	return err
}
