package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classhub/portal-service/internal/models"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var input models.AssignmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	assignment, err := h.assignmentService.Create(ctx, caller, &input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    assignment,
	})
}

func (h *Handler) GetAllAssignments(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	assignments, total, err := h.assignmentService.GetAll(ctx, caller, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"assignments": assignments,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

func (h *Handler) GetAssignmentByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	assignmentID := chi.URLParam(r, "id")

	ctx := r.Context()
	assignment, err := h.assignmentService.GetByID(ctx, caller, assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	assignmentID := chi.URLParam(r, "id")

	var input models.AssignmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	assignment, err := h.assignmentService.Update(ctx, caller, assignmentID, &input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	assignmentID := chi.URLParam(r, "id")

	ctx := r.Context()
	if err := h.assignmentService.Delete(ctx, caller, assignmentID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment deleted",
	})
}
