package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
	"github.com/classhub/portal-service/internal/service"
)

type Handler struct {
	submissionService   service.SubmissionService
	assignmentService   service.AssignmentService
	userService         service.UserService
	notificationService service.NotificationService
	settingsService     service.SettingsService
	logger              zerolog.Logger
}

func NewHandler(
	submissionService service.SubmissionService,
	assignmentService service.AssignmentService,
	userService service.UserService,
	notificationService service.NotificationService,
	settingsService service.SettingsService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		submissionService:   submissionService,
		assignmentService:   assignmentService,
		userService:         userService,
		notificationService: notificationService,
		settingsService:     settingsService,
		logger:              logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(RequireCaller)

		api.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignment)
			r.Get("/", h.GetAllAssignments)
			r.Get("/{id}", h.GetAssignmentByID)
			r.Put("/{id}", h.UpdateAssignment)
			r.Delete("/{id}", h.DeleteAssignment)
			r.Get("/{id}/submissions", h.GetSubmissionsByAssignment)
			r.Get("/{id}/submissions/{studentId}", h.GetStudentSubmission)
			r.Get("/{id}/history", h.GetSubmissionHistory)
		})

		api.Route("/submissions", func(r chi.Router) {
			r.Post("/", h.SubmitAssignment)
			r.Get("/mine", h.GetOwnSubmissions)
			r.Post("/{id}/review", h.ReviewSubmission)
			r.Put("/{id}/status", h.UpdateSubmissionStatus)
		})

		api.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUsers)
			r.Get("/students", h.GetStudentSummaries)
			r.Get("/{id}", h.GetUserByID)
			r.Put("/{id}", h.UpdateUser)
		})

		api.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.GetNotifications)
			r.Get("/unread-count", h.GetUnreadCount)
			r.Put("/read-all", h.MarkAllNotificationsRead)
			r.Put("/{id}/read", h.MarkNotificationRead)
		})

		api.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.SaveSettings)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "portal-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

type callerContextKey struct{}

// RequireCaller resolves the authenticated identity from the headers set by
// the upstream auth layer. Requests without a resolvable identity are
// rejected before any service call.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		roleHeader := r.Header.Get("X-User-Role")

		if userID == "" || roleHeader == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		role, err := models.ParseRole(roleHeader)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		caller := models.Caller{UserID: userID, Role: role}
		ctx := context.WithValue(r.Context(), callerContextKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(r *http.Request) (models.Caller, bool) {
	caller, ok := r.Context().Value(callerContextKey{}).(models.Caller)
	return caller, ok
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}

// handleServiceError maps service failures onto the uniform error shape.
// Internal errors are logged server-side and never leak detail to callers.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Msg)
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
