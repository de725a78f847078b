package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
	"github.com/classhub/portal-service/internal/repository"
)

type UserService interface {
	Create(ctx context.Context, caller models.Caller, req *models.CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, caller models.Caller, id string) (*models.User, error)
	GetAll(ctx context.Context, caller models.Caller, page, limit int) ([]models.User, int, error)
	Update(ctx context.Context, caller models.Caller, id string, req *models.UpdateUserRequest) (*models.User, error)
	GetStudentSummaries(ctx context.Context, caller models.Caller) ([]models.StudentSummary, error)
}

type userService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *userService) Create(ctx context.Context, caller models.Caller, req *models.CreateUserRequest) (*models.User, error) {
	if caller.Role != models.RoleTeacher && caller.Role != models.RoleAdmin {
		return nil, forbiddenf("only teachers and admins can create users")
	}

	if req.Name == "" || req.Email == "" {
		return nil, validationf("name and email are required")
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, validationf("invalid role %q", req.Role)
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Email:          req.Email,
		Role:           role,
		CourseName:     req.CourseName,
		Grade:          req.Grade,
		StudentNumber:  req.StudentNumber,
		EnrollmentYear: req.EnrollmentYear,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", role.String()).
		Msg("User created")

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, caller models.Caller, id string) (*models.User, error) {
	if caller.Role == models.RoleStudent && caller.UserID != id {
		return nil, forbiddenf("not allowed to view this user")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFoundf("user not found")
	}

	return user, nil
}

func (s *userService) GetAll(ctx context.Context, caller models.Caller, page, limit int) ([]models.User, int, error) {
	if caller.Role != models.RoleTeacher && caller.Role != models.RoleAdmin {
		return nil, 0, forbiddenf("only teachers and admins can list users")
	}

	page, limit = normalizePaging(page, limit)
	offset := (page - 1) * limit

	users, total, err := s.userRepo.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// Update changes profile fields only. Role is immutable after creation.
func (s *userService) Update(ctx context.Context, caller models.Caller, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if caller.Role == models.RoleStudent && caller.UserID != id {
		return nil, forbiddenf("not allowed to update this user")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFoundf("user not found")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, validationf("name must not be empty")
		}
		user.Name = *req.Name
	}
	if req.CourseName != nil {
		user.CourseName = req.CourseName
	}
	if req.Grade != nil {
		user.Grade = req.Grade
	}
	if req.StudentNumber != nil {
		user.StudentNumber = req.StudentNumber
	}
	if req.EnrollmentYear != nil {
		user.EnrollmentYear = req.EnrollmentYear
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *userService) GetStudentSummaries(ctx context.Context, caller models.Caller) ([]models.StudentSummary, error) {
	if caller.Role != models.RoleTeacher && caller.Role != models.RoleAdmin {
		return nil, forbiddenf("only teachers and admins can view the student roster")
	}

	summaries, err := s.userRepo.GetStudentSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get student summaries: %w", err)
	}

	return summaries, nil
}
