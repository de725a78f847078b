package httpd

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classhub/portal-service/internal/models"
)

const maxSubmissionFormMemory = 64 << 20 // 64MB

// SubmitAssignment accepts a multipart form with an archive file, an
// optional preview image, and the assignment metadata fields.
func (h *Handler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxSubmissionFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	assignmentID := r.FormValue("assignment_id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "assignment_id is required")
		return
	}
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment_id format")
		return
	}

	archive, err := readFormFile(r, "archive")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Archive file is required")
		return
	}

	req := &models.SubmitRequest{
		AssignmentID: assignmentID,
		Archive:      *archive,
		IsDraft:      r.FormValue("is_draft") == "true",
	}

	if preview, err := readFormFile(r, "preview"); err == nil {
		req.Preview = preview
	}

	ctx := r.Context()
	response, err := h.submissionService.RecordSubmission(ctx, caller, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func readFormFile(r *http.Request, field string) (*models.FilePayload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &models.FilePayload{
		Name:     header.Filename,
		MimeType: formFileContentType(header),
		Content:  content,
	}, nil
}

func formFileContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (h *Handler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	submissionID := chi.URLParam(r, "id")
	if submissionID == "" {
		writeError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.submissionService.ReviewSubmission(ctx, caller, submissionID, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Submission reviewed successfully",
	})
}

func (h *Handler) GetSubmissionsByAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	assignmentID := chi.URLParam(r, "id")
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	response, err := h.submissionService.ListByAssignment(ctx, caller, assignmentID, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetStudentSubmission(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	assignmentID := chi.URLParam(r, "id")
	studentID := chi.URLParam(r, "studentId")

	ctx := r.Context()
	submission, err := h.submissionService.GetStudentSubmission(ctx, caller, assignmentID, studentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) GetOwnSubmissions(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	response, err := h.submissionService.ListOwnSubmissions(ctx, caller, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetSubmissionHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	assignmentID := chi.URLParam(r, "id")

	ctx := r.Context()
	response, err := h.submissionService.SubmissionHistory(ctx, caller, assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) UpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	submissionID := chi.URLParam(r, "id")

	var req models.UpdateSubmissionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.submissionService.UpdateStatus(ctx, caller, submissionID, req.Status); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Submission status updated",
	})
}
