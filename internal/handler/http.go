package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/course-conditions/internal/config"
	"github.com/course-conditions/internal/domain"
	"github.com/course-conditions/internal/identity"
	"github.com/course-conditions/internal/service"
)

// Handler provides HTTP handlers for the course conditions API
type Handler struct {
	courses    *service.CourseService
	conditions *service.ConditionService
	profiles   *service.ProfileService
	verifier   identity.Verifier
	cfg        *config.ServerConfig
	logger     *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	courses *service.CourseService,
	conditions *service.ConditionService,
	profiles *service.ProfileService,
	verifier identity.Verifier,
	cfg *config.ServerConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		courses:    courses,
		conditions: conditions,
		profiles:   profiles,
		verifier:   verifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// errorResponse is the JSON error payload
type errorResponse struct {
	Error string `json:"error"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(h.cfg.RequestTimeout))
	r.Use(h.corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Course listings (public)
		r.Get("/courses", h.ListCourses)
		r.Get("/courses/{courseID}", h.GetCourse)

		// Condition reports
		r.Get("/conditions/course/{courseID}", h.GetCourseConditions)
		r.With(h.requireAuth).Post("/conditions", h.AddCondition)

		// Profile (all routes authenticated)
		r.Route("/user", func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
		})
	})

	return r
}

// corsMiddleware adds CORS headers for the configured frontend origin
func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type contextKey string

const identityKey contextKey = "identity"

// requireAuth verifies the bearer token and injects the asserted identity
// into the request context
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		ident, err := h.verifier.Verify(r.Context(), token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromContext(ctx context.Context) *identity.Identity {
	ident, _ := ctx.Value(identityKey).(*identity.Identity)
	return ident
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeServiceError maps service errors onto HTTP statuses. Dependency
// failures stay in the server log; the client sees a generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err)
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ListCourses returns courses of the requested type with their rolling-window
// average ratings merged in
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courseType := domain.CourseType(r.URL.Query().Get("type"))

	summaries, err := h.courses.ListByType(r.Context(), courseType)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

// GetCourse returns a course's full detail record
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, course)
}

// GetCourseConditions returns a course's window-filtered recent reports
func (h *Handler) GetCourseConditions(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	reports, err := h.conditions.RecentReports(r.Context(), courseID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, reports)
}

// addConditionRequest is the report submission payload. Rating is kept raw
// so malformed values map to an invalid-rating error instead of a generic
// decode failure.
type addConditionRequest struct {
	CourseID      string          `json:"courseId"`
	Rating        json.RawMessage `json:"rating"`
	Comment       string          `json:"comment"`
	ConditionDate string          `json:"conditionDate"`
}

// parseRating converts the raw rating value to an integer. Non-numeric and
// fractional values are invalid; absence is a missing field.
func parseRating(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, domain.ErrMissingFields
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, domain.ErrInvalidRating
	}
	if f != math.Trunc(f) {
		return 0, domain.ErrInvalidRating
	}
	return int(f), nil
}

// AddCondition handles condition report submission
func (h *Handler) AddCondition(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var req addConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	rating, err := parseRating(req.Rating)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	displayName, err := h.profiles.ResolveDisplayNameForSubmission(r.Context(), ident.UID, ident.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	report, err := h.conditions.AddReport(r.Context(), service.ReportSubmission{
		CourseID:        req.CourseID,
		UserID:          ident.UID,
		UserEmail:       ident.Email,
		UserDisplayName: displayName,
		Rating:          rating,
		Comment:         req.Comment,
		DatePlayed:      req.ConditionDate,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, report)
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	profile, err := h.profiles.GetProfile(r.Context(), *ident)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial profile update for the authenticated user
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ident := identityFromContext(r.Context())

	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), *ident, update)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}
