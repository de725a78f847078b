package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
)

type submissionFixture struct {
	svc              SubmissionService
	submissionRepo   *mockSubmissionRepo
	assignmentRepo   *mockAssignmentRepo
	userRepo         *mockUserRepo
	notificationRepo *mockNotificationRepo
	settingsRepo     *mockSettingsRepo
	fileStore        *fakeFileStore
	publisher        *fakeEventPublisher
}

func setupTestSubmissionService() *submissionFixture {
	f := &submissionFixture{
		submissionRepo:   newMockSubmissionRepo(),
		assignmentRepo:   newMockAssignmentRepo(),
		userRepo:         newMockUserRepo(),
		notificationRepo: newMockNotificationRepo(),
		settingsRepo:     newMockSettingsRepo(),
		fileStore:        &fakeFileStore{},
		publisher:        &fakeEventPublisher{},
	}
	f.svc = NewSubmissionService(
		f.submissionRepo,
		f.assignmentRepo,
		f.userRepo,
		f.notificationRepo,
		f.settingsRepo,
		f.fileStore,
		f.publisher,
		zerolog.Nop(),
	)
	return f
}

func (f *submissionFixture) addAssignment(id, title string, year int) *models.Assignment {
	a := &models.Assignment{
		ID:        id,
		Title:     title,
		DueDate:   time.Now().Add(7 * 24 * time.Hour),
		Year:      year,
		Type:      "report",
		Status:    "published",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.assignmentRepo.assignments[id] = a
	return a
}

func (f *submissionFixture) addStudent(id, name string, grade, studentNumber int) *models.User {
	u := &models.User{
		ID:            id,
		Name:          name,
		Email:         id + "@example.com",
		Role:          models.RoleStudent,
		Grade:         &grade,
		StudentNumber: &studentNumber,
	}
	f.userRepo.users[id] = u
	return u
}

func submitReq(assignmentID string) *models.SubmitRequest {
	return &models.SubmitRequest{
		AssignmentID: assignmentID,
		Archive: models.FilePayload{
			Name:     "model.blend",
			MimeType: "application/octet-stream",
			Content:  []byte("blend-data"),
		},
	}
}

func TestSubmissionService_RecordSubmission_VersionSequence(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	for want := 1; want <= 3; want++ {
		resp, err := f.svc.RecordSubmission(context.Background(), caller, submitReq("a1"))
		if err != nil {
			t.Fatalf("RecordSubmission attempt %d failed: %v", want, err)
		}
		if resp.Version != want {
			t.Errorf("attempt %d: version = %d, want %d", want, resp.Version, want)
		}
	}

	if len(f.submissionRepo.submissions) != 3 {
		t.Errorf("stored %d submissions, want 3", len(f.submissionRepo.submissions))
	}
	if len(f.publisher.received) != 3 {
		t.Errorf("published %d received events, want 3", len(f.publisher.received))
	}
}

func TestSubmissionService_RecordSubmission_AssignmentNotFound(t *testing.T) {
	f := setupTestSubmissionService()
	f.addStudent("s1", "田中太郎", 2, 3)
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	_, err := f.svc.RecordSubmission(context.Background(), caller, submitReq("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.submissionRepo.submissions) != 0 {
		t.Error("no submission row should be created for a missing assignment")
	}
}

func TestSubmissionService_RecordSubmission_ArchiveTooLarge(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	f.settingsRepo.settings = &models.SystemSettings{
		ID:            models.SystemSettingsID,
		SystemName:    "test",
		MaxFileSizeMB: 1,
	}
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	req := submitReq("a1")
	req.Archive.Content = bytes.Repeat([]byte("x"), 2<<20)

	_, err := f.svc.RecordSubmission(context.Background(), caller, req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(f.submissionRepo.submissions) != 0 {
		t.Error("oversized archive must not create a submission row")
	}
}

func TestSubmissionService_RecordSubmission_Draft(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	req := submitReq("a1")
	req.IsDraft = true

	resp, err := f.svc.RecordSubmission(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}
	if resp.Status != models.SubmissionStatusDraft.String() {
		t.Errorf("status = %q, want draft", resp.Status)
	}
}

func TestSubmissionService_RecordSubmission_MirrorSkippedWithoutRootFolder(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	// Default settings have no root folder configured.
	resp, err := f.svc.RecordSubmission(context.Background(), caller, submitReq("a1"))
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}
	if resp.Mirror != string(MirrorSkipped) {
		t.Errorf("mirror = %q, want skipped", resp.Mirror)
	}
	if len(f.fileStore.uploads) != 0 {
		t.Error("no uploads expected when mirroring is skipped")
	}

	stored := f.submissionRepo.submissions[resp.ID]
	if !strings.HasPrefix(stored.ArchiveURL, "unsynced/a1/s1/1/") {
		t.Errorf("archive URL = %q, want unsynced fallback path", stored.ArchiveURL)
	}
}

func TestSubmissionService_RecordSubmission_MirrorBuildsFolderHierarchy(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	f.settingsRepo.settings = &models.SystemSettings{
		ID:            models.SystemSettingsID,
		SystemName:    "test",
		MaxFileSizeMB: 50,
		RootFolder:    "root",
	}
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	req := submitReq("a1")
	req.Preview = &models.FilePayload{
		Name:     "preview.png",
		MimeType: "image/png",
		Content:  []byte("png-data"),
	}

	resp, err := f.svc.RecordSubmission(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}
	if resp.Mirror != string(MirrorSucceeded) {
		t.Fatalf("mirror = %q, want succeeded", resp.Mirror)
	}

	wantFolder := "root/2026年度/2年生/03_田中太郎/モデリング基礎/1回目"
	if resp.FolderID != wantFolder {
		t.Errorf("folder = %q, want %q", resp.FolderID, wantFolder)
	}
	if len(resp.FileIDs) != 2 {
		t.Fatalf("uploaded %d files, want 2", len(resp.FileIDs))
	}

	stored := f.submissionRepo.submissions[resp.ID]
	if stored.ArchiveURL != wantFolder+"/model.blend" {
		t.Errorf("archive URL = %q", stored.ArchiveURL)
	}
	if stored.PreviewURL == nil || *stored.PreviewURL != wantFolder+"/preview.png" {
		t.Errorf("preview URL = %v", stored.PreviewURL)
	}
}

func TestSubmissionService_RecordSubmission_MirrorFailureStillRecords(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	f.settingsRepo.settings = &models.SystemSettings{
		ID:            models.SystemSettingsID,
		SystemName:    "test",
		MaxFileSizeMB: 50,
		RootFolder:    "root",
	}
	f.fileStore.uploadErr = errors.New("storage unavailable")
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	resp, err := f.svc.RecordSubmission(context.Background(), caller, submitReq("a1"))
	if err != nil {
		t.Fatalf("storage failure must not fail the submission: %v", err)
	}
	if resp.Mirror != string(MirrorFailed) {
		t.Errorf("mirror = %q, want failed", resp.Mirror)
	}

	stored := f.submissionRepo.submissions[resp.ID]
	if stored == nil {
		t.Fatal("submission row missing")
	}
	if !strings.HasPrefix(stored.ArchiveURL, "unsynced/") {
		t.Errorf("archive URL = %q, want unsynced fallback", stored.ArchiveURL)
	}
}

func TestSubmissionService_RecordSubmission_MirrorSkippedForIncompleteProfile(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.userRepo.users["s1"] = &models.User{
		ID:    "s1",
		Name:  "田中太郎",
		Email: "s1@example.com",
		Role:  models.RoleStudent,
	}
	f.settingsRepo.settings = &models.SystemSettings{
		ID:            models.SystemSettingsID,
		SystemName:    "test",
		MaxFileSizeMB: 50,
		RootFolder:    "root",
	}
	caller := models.Caller{UserID: "s1", Role: models.RoleStudent}

	resp, err := f.svc.RecordSubmission(context.Background(), caller, submitReq("a1"))
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}
	if resp.Mirror != string(MirrorSkipped) {
		t.Errorf("mirror = %q, want skipped when grade/number are unset", resp.Mirror)
	}
}

func TestSubmissionService_ReviewSubmission_Success(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}
	teacher := models.Caller{UserID: "t1", Role: models.RoleTeacher}

	resp, err := f.svc.RecordSubmission(context.Background(), student, submitReq("a1"))
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	review := &models.ReviewRequest{Score: 85, Comment: "よくできています"}
	if err := f.svc.ReviewSubmission(context.Background(), teacher, resp.ID, review); err != nil {
		t.Fatalf("ReviewSubmission failed: %v", err)
	}

	stored := f.submissionRepo.submissions[resp.ID]
	if stored.Status != models.SubmissionStatusReviewed.String() {
		t.Errorf("status = %q, want reviewed", stored.Status)
	}
	if stored.Score == nil || *stored.Score != 85 {
		t.Errorf("score = %v, want 85", stored.Score)
	}
	if stored.ReviewedAt == nil {
		t.Error("reviewedAt should be set")
	}

	if got := f.notificationRepo.forUser("s1"); len(got) != 1 {
		t.Errorf("student received %d notifications, want 1", len(got))
	}
	if len(f.publisher.reviewed) != 1 {
		t.Errorf("published %d reviewed events, want 1", len(f.publisher.reviewed))
	}
}

func TestSubmissionService_ReviewSubmission_ScoreOutOfRange(t *testing.T) {
	f := setupTestSubmissionService()
	teacher := models.Caller{UserID: "t1", Role: models.RoleTeacher}

	err := f.svc.ReviewSubmission(context.Background(), teacher, "x", &models.ReviewRequest{Score: 150, Comment: "ok"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for score 150, got %v", err)
	}
}

func TestSubmissionService_ReviewSubmission_EmptyComment(t *testing.T) {
	f := setupTestSubmissionService()
	teacher := models.Caller{UserID: "t1", Role: models.RoleTeacher}

	err := f.svc.ReviewSubmission(context.Background(), teacher, "x", &models.ReviewRequest{Score: 80})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty comment, got %v", err)
	}
}

func TestSubmissionService_ReviewSubmission_StudentForbidden(t *testing.T) {
	f := setupTestSubmissionService()
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}

	err := f.svc.ReviewSubmission(context.Background(), student, "x", &models.ReviewRequest{Score: 80, Comment: "ok"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSubmissionService_ReviewLeavesEarlierVersionsUntouched(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}
	teacher := models.Caller{UserID: "t1", Role: models.RoleTeacher}

	first, err := f.svc.RecordSubmission(context.Background(), student, submitReq("a1"))
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	second, err := f.svc.RecordSubmission(context.Background(), student, submitReq("a1"))
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}

	review := &models.ReviewRequest{Score: 70, Comment: "改善の余地あり"}
	if err := f.svc.ReviewSubmission(context.Background(), teacher, second.ID, review); err != nil {
		t.Fatalf("ReviewSubmission failed: %v", err)
	}

	v1 := f.submissionRepo.submissions[first.ID]
	if v1.Status != models.SubmissionStatusSubmitted.String() {
		t.Errorf("version 1 status = %q, want submitted", v1.Status)
	}
	if v1.Score != nil {
		t.Errorf("version 1 score = %v, want nil", v1.Score)
	}
}

func TestSubmissionService_ListByAssignment_StudentForbidden(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}

	_, err := f.svc.ListByAssignment(context.Background(), student, "a1", 1, 20)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSubmissionService_GetStudentSubmission_Access(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}

	if _, err := f.svc.RecordSubmission(context.Background(), student, submitReq("a1")); err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	// Own submission is visible.
	got, err := f.svc.GetStudentSubmission(context.Background(), student, "a1", "s1")
	if err != nil {
		t.Fatalf("own submission should be visible: %v", err)
	}
	if got.UserID != "s1" {
		t.Errorf("userID = %q, want s1", got.UserID)
	}

	// Another student's submission is not.
	other := models.Caller{UserID: "s2", Role: models.RoleStudent}
	if _, err := f.svc.GetStudentSubmission(context.Background(), other, "a1", "s1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for another student, got %v", err)
	}

	// Teachers can view anyone's.
	teacher := models.Caller{UserID: "t1", Role: models.RoleTeacher}
	if _, err := f.svc.GetStudentSubmission(context.Background(), teacher, "a1", "s1"); err != nil {
		t.Errorf("teacher view failed: %v", err)
	}
}

func TestSubmissionService_SubmissionHistory_VersionsDescending(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}

	for i := 0; i < 3; i++ {
		if _, err := f.svc.RecordSubmission(context.Background(), student, submitReq("a1")); err != nil {
			t.Fatalf("submission %d failed: %v", i+1, err)
		}
	}

	history, err := f.svc.SubmissionHistory(context.Background(), student, "a1")
	if err != nil {
		t.Fatalf("SubmissionHistory failed: %v", err)
	}
	if history.AssignmentTitle != "モデリング基礎" {
		t.Errorf("title = %q", history.AssignmentTitle)
	}
	if len(history.Submissions) != 3 {
		t.Fatalf("history has %d entries, want 3", len(history.Submissions))
	}
	for i, s := range history.Submissions {
		if want := 3 - i; s.Version != want {
			t.Errorf("entry %d: version = %d, want %d", i, s.Version, want)
		}
	}
}

func TestSubmissionService_UpdateStatus(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}
	teacher := models.Caller{UserID: "t1", Role: models.RoleTeacher}

	resp, err := f.svc.RecordSubmission(context.Background(), student, submitReq("a1"))
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	if err := f.svc.UpdateStatus(context.Background(), student, resp.ID, "archived"); !errors.Is(err, ErrForbidden) {
		t.Errorf("students must not change status, got %v", err)
	}

	if err := f.svc.UpdateStatus(context.Background(), teacher, resp.ID, "graded"); err == nil {
		t.Error("invalid status should be rejected")
	}

	if err := f.svc.UpdateStatus(context.Background(), teacher, resp.ID, "archived"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if got := f.submissionRepo.submissions[resp.ID].Status; got != "archived" {
		t.Errorf("status = %q, want archived", got)
	}
}

func TestSubmissionService_UpdateStatus_ReviewedOnlyViaReview(t *testing.T) {
	f := setupTestSubmissionService()
	f.addAssignment("a1", "モデリング基礎", 2026)
	f.addStudent("s1", "田中太郎", 2, 3)
	student := models.Caller{UserID: "s1", Role: models.RoleStudent}
	teacher := models.Caller{UserID: "t1", Role: models.RoleTeacher}

	resp, err := f.svc.RecordSubmission(context.Background(), student, submitReq("a1"))
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	err = f.svc.UpdateStatus(context.Background(), teacher, resp.ID, "reviewed")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for reviewed via status update, got %v", err)
	}

	stored := f.submissionRepo.submissions[resp.ID]
	if stored.Status != models.SubmissionStatusSubmitted.String() {
		t.Errorf("status = %q, want submitted", stored.Status)
	}
	if stored.Score != nil || stored.Comment != nil || stored.ReviewedAt != nil {
		t.Error("score, comment and reviewedAt must stay unset")
	}

	// The review operation remains the one path into the reviewed state.
	review := &models.ReviewRequest{Score: 90, Comment: "完成度が高いです"}
	if err := f.svc.ReviewSubmission(context.Background(), teacher, resp.ID, review); err != nil {
		t.Fatalf("ReviewSubmission failed: %v", err)
	}
	if got := f.submissionRepo.submissions[resp.ID].Status; got != models.SubmissionStatusReviewed.String() {
		t.Errorf("status after review = %q, want reviewed", got)
	}
}
