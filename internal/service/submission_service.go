package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
	"github.com/classhub/portal-service/internal/repository"
	"github.com/classhub/portal-service/internal/service/integration"
	"github.com/classhub/portal-service/internal/service/storage"
)

type SubmissionService interface {
	RecordSubmission(ctx context.Context, caller models.Caller, req *models.SubmitRequest) (*models.SubmitResponse, error)
	ReviewSubmission(ctx context.Context, caller models.Caller, submissionID string, req *models.ReviewRequest) error
	ListByAssignment(ctx context.Context, caller models.Caller, assignmentID string, page, limit int) (*models.SubmissionsResponse, error)
	GetStudentSubmission(ctx context.Context, caller models.Caller, assignmentID, studentID string) (*models.SubmissionWithUser, error)
	ListOwnSubmissions(ctx context.Context, caller models.Caller, page, limit int) (*models.OwnSubmissionsResponse, error)
	SubmissionHistory(ctx context.Context, caller models.Caller, assignmentID string) (*models.SubmissionHistoryResponse, error)
	UpdateStatus(ctx context.Context, caller models.Caller, id, status string) error
}

// MirrorOutcome classifies what happened to the storage side channel during
// a submission. Failed never fails the submission itself.
type MirrorOutcome string

const (
	MirrorSucceeded MirrorOutcome = "succeeded"
	MirrorSkipped   MirrorOutcome = "skipped"
	MirrorFailed    MirrorOutcome = "failed"
)

type MirrorResult struct {
	Outcome  MirrorOutcome
	Reason   string
	FolderID string
	FileIDs  []string
}

type submissionService struct {
	submissionRepo   repository.SubmissionRepository
	assignmentRepo   repository.AssignmentRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	settingsRepo     repository.SettingsRepository
	fileStore        storage.FileStore
	publisher        integration.EventPublisher
	logger           zerolog.Logger
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	settingsRepo repository.SettingsRepository,
	fileStore storage.FileStore,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo:   submissionRepo,
		assignmentRepo:   assignmentRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
		fileStore:        fileStore,
		publisher:        publisher,
		logger:           logger,
	}
}

func (s *submissionService) RecordSubmission(ctx context.Context, caller models.Caller, req *models.SubmitRequest) (*models.SubmitResponse, error) {
	if req.AssignmentID == "" {
		return nil, validationf("assignment_id is required")
	}
	if req.Archive.Name == "" || len(req.Archive.Content) == 0 {
		return nil, validationf("archive file is required")
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, notFoundf("assignment not found")
	}

	user, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFoundf("user not found")
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if settings == nil {
		settings = models.DefaultSystemSettings()
	}

	if settings.MaxFileSizeMB > 0 && len(req.Archive.Content) > settings.MaxFileSizeMB<<20 {
		return nil, validationf("archive exceeds the maximum upload size of %dMB", settings.MaxFileSizeMB)
	}

	// The next version is always computed from a fresh query, never a cached
	// counter. Concurrent submissions for the same pair may still observe the
	// same maximum; that race is accepted behavior.
	maxVersion, err := s.submissionRepo.MaxVersion(ctx, req.AssignmentID, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next version: %w", err)
	}
	version := maxVersion + 1

	mirror := s.mirrorSubmission(ctx, settings.RootFolder, assignment, user, version, req)

	status := models.SubmissionStatusSubmitted
	if req.IsDraft {
		status = models.SubmissionStatusDraft
	}

	now := time.Now()
	submission := &models.Submission{
		ID:           uuid.New().String(),
		AssignmentID: req.AssignmentID,
		UserID:       caller.UserID,
		Version:      version,
		Status:       status.String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch mirror.Outcome {
	case MirrorSucceeded:
		folderID := mirror.FolderID
		submission.FolderID = &folderID
		submission.ArchiveURL = mirror.FileIDs[0]
		if len(mirror.FileIDs) > 1 {
			preview := mirror.FileIDs[1]
			submission.PreviewURL = &preview
		}
	default:
		// Never block the core write on external storage: record a synthetic
		// local path so the row is still created.
		fallback := fmt.Sprintf("unsynced/%s/%s/%d", req.AssignmentID, caller.UserID, version)
		submission.FolderID = &fallback
		submission.ArchiveURL = fallback + "/" + req.Archive.Name
		if req.Preview != nil {
			preview := fallback + "/" + req.Preview.Name
			submission.PreviewURL = &preview
		}
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("assignment_id", req.AssignmentID).
		Str("user_id", caller.UserID).
		Int("version", version).
		Str("mirror", string(mirror.Outcome)).
		Msg("Submission recorded")

	if s.publisher != nil {
		event := &models.SubmissionReceivedEvent{
			SubmissionID: submission.ID,
			AssignmentID: req.AssignmentID,
			UserID:       caller.UserID,
			Version:      version,
			Status:       submission.Status,
			Timestamp:    now.Unix(),
		}
		if err := s.publisher.PublishSubmissionReceived(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish submission received event")
		}
	}

	return &models.SubmitResponse{
		ID:        submission.ID,
		Version:   version,
		Status:    submission.Status,
		FolderID:  mirror.FolderID,
		Mirror:    string(mirror.Outcome),
		FileIDs:   mirror.FileIDs,
		CreatedAt: submission.CreatedAt,
	}, nil
}

// mirrorSubmission replicates the uploaded files into the external folder
// hierarchy. It never returns an error: failures are folded into the result
// and logged, keeping the side channel strictly best-effort.
func (s *submissionService) mirrorSubmission(ctx context.Context, rootFolder string, assignment *models.Assignment, user *models.User, version int, req *models.SubmitRequest) MirrorResult {
	if rootFolder == "" {
		return MirrorResult{Outcome: MirrorSkipped, Reason: "no root folder configured"}
	}
	if !user.HasCompleteProfile() {
		return MirrorResult{Outcome: MirrorSkipped, Reason: "user profile incomplete"}
	}
	if s.fileStore == nil {
		return MirrorResult{Outcome: MirrorSkipped, Reason: "file store unavailable"}
	}

	segments := submissionFolderSegments(assignment, user, version)

	folderID := rootFolder
	var err error
	for _, segment := range segments {
		folderID, err = s.fileStore.FindOrCreateFolder(ctx, folderID, segment)
		if err != nil {
			s.logger.Error().Err(err).
				Str("assignment_id", assignment.ID).
				Str("user_id", user.ID).
				Str("segment", segment).
				Msg("Folder provisioning failed; submission proceeds without mirror")
			return MirrorResult{Outcome: MirrorFailed, Reason: err.Error()}
		}
	}

	archiveID, err := s.fileStore.UploadFile(ctx, folderID, req.Archive.Name, req.Archive.Content, req.Archive.MimeType)
	if err != nil {
		s.logger.Error().Err(err).
			Str("assignment_id", assignment.ID).
			Str("user_id", user.ID).
			Msg("Archive upload failed; submission proceeds without mirror")
		return MirrorResult{Outcome: MirrorFailed, Reason: err.Error()}
	}

	fileIDs := []string{archiveID}
	if req.Preview != nil {
		previewID, err := s.fileStore.UploadFile(ctx, folderID, req.Preview.Name, req.Preview.Content, req.Preview.MimeType)
		if err != nil {
			s.logger.Error().Err(err).
				Str("assignment_id", assignment.ID).
				Str("user_id", user.ID).
				Msg("Preview upload failed; submission proceeds without mirror")
			return MirrorResult{Outcome: MirrorFailed, Reason: err.Error()}
		}
		fileIDs = append(fileIDs, previewID)
	}

	return MirrorResult{Outcome: MirrorSucceeded, FolderID: folderID, FileIDs: fileIDs}
}

// submissionFolderSegments builds the external folder path for one
// submission attempt: year / grade / student / assignment / attempt.
func submissionFolderSegments(assignment *models.Assignment, user *models.User, version int) []string {
	return []string{
		fmt.Sprintf("%d年度", assignment.Year),
		fmt.Sprintf("%d年生", *user.Grade),
		fmt.Sprintf("%02d_%s", *user.StudentNumber, user.Name),
		assignment.Title,
		fmt.Sprintf("%d回目", version),
	}
}

func (s *submissionService) ReviewSubmission(ctx context.Context, caller models.Caller, submissionID string, req *models.ReviewRequest) error {
	if caller.Role != models.RoleTeacher {
		return forbiddenf("only teachers can review submissions")
	}
	if req.Score < 0 || req.Score > 100 {
		return validationf("score must be between 0 and 100")
	}
	if req.Comment == "" {
		return validationf("comment is required")
	}

	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return notFoundf("submission not found")
	}

	reviewedAt := time.Now()
	if err := s.submissionRepo.Review(ctx, submissionID, req.Score, req.Comment, reviewedAt); err != nil {
		return fmt.Errorf("failed to review submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("reviewer_id", caller.UserID).
		Int("score", req.Score).
		Msg("Submission reviewed")

	assignmentTitle := submission.AssignmentID
	if assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID); err == nil && assignment != nil {
		assignmentTitle = assignment.Title
	}

	notification := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    submission.UserID,
		Title:     "課題がレビューされました",
		Message:   fmt.Sprintf("「%s」の提出（%d回目）が評価されました。スコア: %d", assignmentTitle, submission.Version, req.Score),
		Type:      string(models.NotificationTypeSuccess),
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error().Err(err).
			Str("submission_id", submissionID).
			Msg("Failed to create review notification")
	}

	if s.publisher != nil {
		event := &models.SubmissionReviewedEvent{
			SubmissionID: submissionID,
			AssignmentID: submission.AssignmentID,
			UserID:       submission.UserID,
			Score:        req.Score,
			Timestamp:    reviewedAt.Unix(),
		}
		if err := s.publisher.PublishSubmissionReviewed(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish submission reviewed event")
		}
	}

	return nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, caller models.Caller, assignmentID string, page, limit int) (*models.SubmissionsResponse, error) {
	if caller.Role != models.RoleTeacher {
		return nil, forbiddenf("only teachers can list submissions")
	}

	exists, err := s.assignmentRepo.Exists(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignment existence: %w", err)
	}
	if !exists {
		return nil, notFoundf("assignment not found")
	}

	page, limit = normalizePaging(page, limit)
	offset := (page - 1) * limit

	submissions, total, err := s.submissionRepo.ListByAssignment(ctx, assignmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *submissionService) GetStudentSubmission(ctx context.Context, caller models.Caller, assignmentID, studentID string) (*models.SubmissionWithUser, error) {
	if caller.Role != models.RoleTeacher && caller.UserID != studentID {
		return nil, forbiddenf("not allowed to view this submission")
	}

	submission, err := s.submissionRepo.GetLatest(ctx, assignmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return nil, notFoundf("submission not found")
	}

	return submission, nil
}

func (s *submissionService) ListOwnSubmissions(ctx context.Context, caller models.Caller, page, limit int) (*models.OwnSubmissionsResponse, error) {
	page, limit = normalizePaging(page, limit)
	offset := (page - 1) * limit

	submissions, total, err := s.submissionRepo.ListByUser(ctx, caller.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &models.OwnSubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *submissionService) SubmissionHistory(ctx context.Context, caller models.Caller, assignmentID string) (*models.SubmissionHistoryResponse, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, notFoundf("assignment not found")
	}

	submissions, err := s.submissionRepo.ListVersions(ctx, assignmentID, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission history: %w", err)
	}

	return &models.SubmissionHistoryResponse{
		AssignmentTitle: assignment.Title,
		Submissions:     submissions,
	}, nil
}

func (s *submissionService) UpdateStatus(ctx context.Context, caller models.Caller, id, status string) error {
	if caller.Role != models.RoleTeacher && caller.Role != models.RoleAdmin {
		return forbiddenf("only teachers can update submission status")
	}
	if !models.IsValidSubmissionStatus(status) {
		return validationf("invalid submission status %q", status)
	}
	// The reviewed state always carries a score, comment and timestamp,
	// which only ReviewSubmission sets.
	if status == models.SubmissionStatusReviewed.String() {
		return validationf("reviewed status is set through the review operation")
	}

	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return notFoundf("submission not found")
	}

	return s.submissionRepo.UpdateStatus(ctx, id, status)
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
