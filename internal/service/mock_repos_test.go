package service

import (
	"context"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/classhub/portal-service/internal/models"
)

// In-memory repository doubles backed by maps. They implement just enough
// semantics for the service layer: lookups return nil on miss, list methods
// sort deterministically.

type mockSubmissionRepo struct {
	submissions map[string]*models.Submission
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{submissions: make(map[string]*models.Submission)}
}

func (m *mockSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	m.submissions[submission.ID] = submission
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*models.Submission, error) {
	if s, ok := m.submissions[id]; ok {
		return s, nil
	}
	return nil, nil
}

func (m *mockSubmissionRepo) MaxVersion(_ context.Context, assignmentID, userID string) (int, error) {
	max := 0
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.UserID == userID && s.Version > max {
			max = s.Version
		}
	}
	return max, nil
}

func (m *mockSubmissionRepo) GetLatest(_ context.Context, assignmentID, userID string) (*models.SubmissionWithUser, error) {
	var latest *models.Submission
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.UserID == userID {
			if latest == nil || s.Version > latest.Version {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	return &models.SubmissionWithUser{Submission: *latest}, nil
}

func (m *mockSubmissionRepo) ListByAssignment(_ context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithUser, int, error) {
	var result []models.SubmissionWithUser
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			result = append(result, models.SubmissionWithUser{Submission: *s})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return page(result, limit, offset), len(result), nil
}

func (m *mockSubmissionRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.SubmissionWithAssignment, int, error) {
	var result []models.SubmissionWithAssignment
	for _, s := range m.submissions {
		if s.UserID == userID {
			result = append(result, models.SubmissionWithAssignment{Submission: *s})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return page(result, limit, offset), len(result), nil
}

func (m *mockSubmissionRepo) ListVersions(_ context.Context, assignmentID, userID string) ([]models.Submission, error) {
	var result []models.Submission
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.UserID == userID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Version > result[j].Version
	})
	return result, nil
}

func (m *mockSubmissionRepo) Review(_ context.Context, id string, score int, comment string, reviewedAt time.Time) error {
	s, ok := m.submissions[id]
	if !ok {
		return nil
	}
	s.Score = &score
	s.Comment = &comment
	s.Status = models.SubmissionStatusReviewed.String()
	s.ReviewedAt = &reviewedAt
	s.UpdatedAt = reviewedAt
	return nil
}

func (m *mockSubmissionRepo) UpdateStatus(_ context.Context, id, status string) error {
	if s, ok := m.submissions[id]; ok {
		s.Status = status
		s.UpdatedAt = time.Now()
	}
	return nil
}

type mockAssignmentRepo struct {
	assignments map[string]*models.Assignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*models.Assignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	m.assignments[assignment.ID] = assignment
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, nil
}

func (m *mockAssignmentRepo) GetAll(_ context.Context, limit, offset int) ([]models.AssignmentWithStats, int, error) {
	var result []models.AssignmentWithStats
	for _, a := range m.assignments {
		result = append(result, models.AssignmentWithStats{Assignment: *a})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return page(result, limit, offset), len(result), nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	m.assignments[assignment.ID] = assignment
	return nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string) error {
	delete(m.assignments, id)
	return nil
}

func (m *mockAssignmentRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.assignments[id]
	return ok, nil
}

type mockUserRepo struct {
	users map[string]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return &pq.Error{Code: "23505"}
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetAll(_ context.Context, limit, offset int) ([]models.User, int, error) {
	var result []models.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return page(result, limit, offset), len(result), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

func (m *mockUserRepo) ListIDsByRole(_ context.Context, role models.Role) ([]string, error) {
	var ids []string
	for _, u := range m.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockUserRepo) GetStudentSummaries(_ context.Context) ([]models.StudentSummary, error) {
	var result []models.StudentSummary
	for _, u := range m.users {
		if u.Role == models.RoleStudent {
			result = append(result, models.StudentSummary{
				ID:            u.ID,
				Name:          u.Name,
				Grade:         u.Grade,
				StudentNumber: u.StudentNumber,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type mockNotificationRepo struct {
	notifications map[string]*models.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[string]*models.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	m.notifications[notification.ID] = notification
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		return n, nil
	}
	return nil, nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Notification, int, error) {
	var result []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return page(result, limit, offset), len(result), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	if n, ok := m.notifications[id]; ok {
		n.Read = true
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) forUser(userID string) []*models.Notification {
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

type mockSettingsRepo struct {
	settings *models.SystemSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{}
}

func (m *mockSettingsRepo) Get(_ context.Context) (*models.SystemSettings, error) {
	return m.settings, nil
}

func (m *mockSettingsRepo) Upsert(_ context.Context, settings *models.SystemSettings) error {
	settings.ID = models.SystemSettingsID
	m.settings = settings
	return nil
}

// fakeFileStore records folder and upload calls, deriving IDs from the
// parent path so tests can assert the full hierarchy.
type fakeFileStore struct {
	folderErr error
	uploadErr error
	folders   []string
	uploads   []string
}

func (f *fakeFileStore) FindOrCreateFolder(_ context.Context, parentID, name string) (string, error) {
	if f.folderErr != nil {
		return "", f.folderErr
	}
	id := parentID + "/" + name
	f.folders = append(f.folders, id)
	return id, nil
}

func (f *fakeFileStore) UploadFile(_ context.Context, folderID, fileName string, _ []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	id := folderID + "/" + fileName
	f.uploads = append(f.uploads, id)
	return id, nil
}

type fakeEventPublisher struct {
	received []*models.SubmissionReceivedEvent
	reviewed []*models.SubmissionReviewedEvent
}

func (f *fakeEventPublisher) PublishSubmissionReceived(_ context.Context, event *models.SubmissionReceivedEvent) error {
	f.received = append(f.received, event)
	return nil
}

func (f *fakeEventPublisher) PublishSubmissionReviewed(_ context.Context, event *models.SubmissionReviewedEvent) error {
	f.reviewed = append(f.reviewed, event)
	return nil
}

func (f *fakeEventPublisher) Close() error {
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
