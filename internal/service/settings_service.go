package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
	"github.com/classhub/portal-service/internal/repository"
)

type SettingsService interface {
	Get(ctx context.Context, caller models.Caller) (*models.SystemSettings, error)
	Save(ctx context.Context, caller models.Caller, settings *models.SystemSettings) error
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	logger       zerolog.Logger
}

func NewSettingsService(settingsRepo repository.SettingsRepository, logger zerolog.Logger) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

// Get returns the singleton settings record, falling back to built-in
// defaults when it has never been written.
func (s *settingsService) Get(ctx context.Context, caller models.Caller) (*models.SystemSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if settings == nil {
		return models.DefaultSystemSettings(), nil
	}

	return settings, nil
}

func (s *settingsService) Save(ctx context.Context, caller models.Caller, settings *models.SystemSettings) error {
	if caller.Role != models.RoleTeacher && caller.Role != models.RoleAdmin {
		return forbiddenf("only teachers and admins can change settings")
	}

	if settings.SystemName == "" {
		return validationf("system name is required")
	}
	if settings.MaxFileSizeMB <= 0 {
		return validationf("max file size must be positive")
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info().Str("updated_by", caller.UserID).Msg("System settings saved")
	return nil
}
