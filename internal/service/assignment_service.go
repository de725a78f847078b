package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
	"github.com/classhub/portal-service/internal/repository"
)

type AssignmentService interface {
	Create(ctx context.Context, caller models.Caller, input *models.AssignmentInput) (*models.Assignment, error)
	GetByID(ctx context.Context, caller models.Caller, id string) (*models.Assignment, error)
	GetAll(ctx context.Context, caller models.Caller, page, limit int) ([]models.AssignmentWithStats, int, error)
	Update(ctx context.Context, caller models.Caller, id string, input *models.AssignmentInput) (*models.Assignment, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
}

type assignmentService struct {
	assignmentRepo   repository.AssignmentRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	logger           zerolog.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo:   assignmentRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *assignmentService) Create(ctx context.Context, caller models.Caller, input *models.AssignmentInput) (*models.Assignment, error) {
	if caller.Role != models.RoleTeacher {
		return nil, forbiddenf("only teachers can create assignments")
	}

	if input.Title == "" || input.DueDate == nil || input.Year == nil {
		return nil, validationf("title, due date and year are required")
	}

	assignmentType := string(models.AssignmentTypeReport)
	if input.Type != nil {
		if !models.IsValidAssignmentType(*input.Type) {
			return nil, validationf("invalid assignment type %q", *input.Type)
		}
		assignmentType = *input.Type
	}

	status := string(models.AssignmentStatusDraft)
	if input.Status != nil {
		if !models.IsValidAssignmentStatus(*input.Status) {
			return nil, validationf("invalid assignment status %q", *input.Status)
		}
		status = *input.Status
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	createdBy := caller.UserID
	assignment := &models.Assignment{
		ID:                 uuid.New().String(),
		Title:              input.Title,
		Description:        input.Description,
		DueDate:            *input.DueDate,
		Year:               *input.Year,
		Type:               assignmentType,
		Category:           input.Category,
		Tags:               tags,
		EvaluationCriteria: input.EvaluationCriteria,
		MaxScore:           input.MaxScore,
		PassingScore:       input.PassingScore,
		IsPublic:           input.IsPublic != nil && *input.IsPublic,
		PublishedAt:        input.PublishedAt,
		Status:             status,
		CreatedByID:        &createdBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if input.IsGroupAssignment != nil && *input.IsGroupAssignment {
		assignment.IsGroupAssignment = true
		assignment.MaxGroupSize = input.MaxGroupSize
		assignment.MinGroupSize = input.MinGroupSize
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("created_by", caller.UserID).
		Str("status", assignment.Status).
		Msg("Assignment created")

	if assignment.Status == string(models.AssignmentStatusPublished) {
		s.notifyStudents(ctx, assignment)
	}

	return assignment, nil
}

func (s *assignmentService) GetByID(ctx context.Context, caller models.Caller, id string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, notFoundf("assignment not found")
	}

	return assignment, nil
}

func (s *assignmentService) GetAll(ctx context.Context, caller models.Caller, page, limit int) ([]models.AssignmentWithStats, int, error) {
	page, limit = normalizePaging(page, limit)
	offset := (page - 1) * limit

	assignments, total, err := s.assignmentRepo.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}

	return assignments, total, nil
}

// Update applies a partial overlay onto the stored record. Any valid status
// value is accepted; transitions are intentionally unconstrained.
func (s *assignmentService) Update(ctx context.Context, caller models.Caller, id string, input *models.AssignmentInput) (*models.Assignment, error) {
	if caller.Role != models.RoleTeacher {
		return nil, forbiddenf("only teachers can update assignments")
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, notFoundf("assignment not found")
	}

	wasPublished := assignment.Status == string(models.AssignmentStatusPublished)

	if input.Title != "" {
		assignment.Title = input.Title
	}
	if input.Description != nil {
		assignment.Description = input.Description
	}
	if input.DueDate != nil {
		assignment.DueDate = *input.DueDate
	}
	if input.Year != nil {
		assignment.Year = *input.Year
	}
	if input.Type != nil {
		if !models.IsValidAssignmentType(*input.Type) {
			return nil, validationf("invalid assignment type %q", *input.Type)
		}
		assignment.Type = *input.Type
	}
	if input.Category != nil {
		assignment.Category = input.Category
	}
	if input.Tags != nil {
		assignment.Tags = input.Tags
	}
	if input.EvaluationCriteria != nil {
		assignment.EvaluationCriteria = input.EvaluationCriteria
	}
	if input.MaxScore != nil {
		assignment.MaxScore = input.MaxScore
	}
	if input.PassingScore != nil {
		assignment.PassingScore = input.PassingScore
	}
	if input.IsGroupAssignment != nil {
		assignment.IsGroupAssignment = *input.IsGroupAssignment
	}
	if input.MaxGroupSize != nil {
		assignment.MaxGroupSize = input.MaxGroupSize
	}
	if input.MinGroupSize != nil {
		assignment.MinGroupSize = input.MinGroupSize
	}
	if input.IsPublic != nil {
		assignment.IsPublic = *input.IsPublic
	}
	if input.PublishedAt != nil {
		assignment.PublishedAt = input.PublishedAt
	}
	if input.Status != nil {
		if !models.IsValidAssignmentStatus(*input.Status) {
			return nil, validationf("invalid assignment status %q", *input.Status)
		}
		assignment.Status = *input.Status
	}
	assignment.UpdatedAt = time.Now()

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", id).
		Str("status", assignment.Status).
		Msg("Assignment updated")

	if !wasPublished && assignment.Status == string(models.AssignmentStatusPublished) {
		s.notifyStudents(ctx, assignment)
	}

	return assignment, nil
}

func (s *assignmentService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if caller.Role != models.RoleTeacher {
		return forbiddenf("only teachers can delete assignments")
	}

	exists, err := s.assignmentRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check assignment existence: %w", err)
	}
	if !exists {
		return notFoundf("assignment not found")
	}

	if err := s.assignmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	s.logger.Info().Str("assignment_id", id).Msg("Assignment deleted")
	return nil
}

// notifyStudents fans out a publication notice to every student. Failures
// are logged only; assignment state is already committed.
func (s *assignmentService) notifyStudents(ctx context.Context, assignment *models.Assignment) {
	studentIDs, err := s.userRepo.ListIDsByRole(ctx, models.RoleStudent)
	if err != nil {
		s.logger.Error().Err(err).
			Str("assignment_id", assignment.ID).
			Msg("Failed to list students for publication notice")
		return
	}

	for _, studentID := range studentIDs {
		notification := &models.Notification{
			ID:        uuid.New().String(),
			UserID:    studentID,
			Title:     "新しい課題が公開されました",
			Message:   fmt.Sprintf("「%s」が公開されました。提出期限: %s", assignment.Title, assignment.DueDate.Format("2006-01-02")),
			Type:      string(models.NotificationTypeInfo),
			CreatedAt: time.Now(),
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			s.logger.Error().Err(err).
				Str("assignment_id", assignment.ID).
				Str("user_id", studentID).
				Msg("Failed to create publication notification")
		}
	}
}
