package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/classhub/portal-service/internal/models"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx := r.Context()
	settings, err := h.settingsService.Get(ctx, caller)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, settings)
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var settings models.SystemSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.settingsService.Save(ctx, caller, &settings); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, settings)
}
