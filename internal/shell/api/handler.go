// Package api provides HTTP handlers for the pgstay API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/pgstay/internal/core/auth"
	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/core/validation"
	"github.com/artpar/pgstay/internal/shell/api/middleware"
	"github.com/artpar/pgstay/internal/shell/api/openapi"
	"github.com/artpar/pgstay/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Config holds the collaborators of the API handler.
type Config struct {
	Store    store.Store
	Tokens   *auth.TokenIssuer
	Registry *validation.Registry
	Logger   *slog.Logger

	// BcryptCost is the password hashing cost. Zero means bcrypt.DefaultCost.
	BcryptCost int

	// MaxBodyBytes caps request bodies. Zero means the validator default.
	MaxBodyBytes int64

	// Version is published in the OpenAPI document.
	Version string
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	store      store.Store
	tokens     *auth.TokenIssuer
	registry   *validation.Registry
	validator  *middleware.Validator
	auth       *middleware.AuthMiddleware
	logger     *slog.Logger
	bcryptCost int
	version    string
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	return &Handler{
		store:    cfg.Store,
		tokens:   cfg.Tokens,
		registry: cfg.Registry,
		validator: middleware.NewValidator(middleware.ValidatorConfig{
			MaxBodyBytes: cfg.MaxBodyBytes,
			Logger:       cfg.Logger,
		}),
		auth: middleware.NewAuthMiddleware(middleware.AuthConfig{
			Tokens:      cfg.Tokens,
			Revocations: cfg.Store,
			Logger:      cfg.Logger,
		}),
		logger:     cfg.Logger,
		bcryptCost: cfg.BcryptCost,
		version:    cfg.Version,
	}
}

// endpoint ties a route to its validation schema, access guard and
// documentation.
type endpoint struct {
	method  string
	path    string
	id      string
	summary string
	tag     string
	schema  string
	guard   func(http.Handler) http.Handler
	status  int
	data    any
	handler http.HandlerFunc
}

func (h *Handler) endpoints() []endpoint {
	authed := middleware.RequireAuth(h.logger)
	viewers := middleware.Require(h.logger, auth.CanViewTechnicians)
	managers := middleware.Require(h.logger, auth.CanManageTechnicians)
	founders := middleware.Require(h.logger, auth.CanCreateCommunity)

	return []endpoint{
		// Auth
		{method: http.MethodPost, path: "/api/v1/auth/register", id: "register", summary: "Create an account",
			tag: "auth", schema: validation.AuthRegister, status: http.StatusCreated, data: domain.Session{},
			handler: h.handleRegister},
		{method: http.MethodPost, path: "/api/v1/auth/login", id: "login", summary: "Sign in",
			tag: "auth", schema: validation.AuthLogin, data: domain.Session{},
			handler: h.handleLogin},
		{method: http.MethodPost, path: "/api/v1/auth/logout", id: "logout", summary: "Revoke the current token",
			tag: "auth", guard: authed,
			handler: h.handleLogout},
		{method: http.MethodGet, path: "/api/v1/auth/me", id: "me", summary: "Current user",
			tag: "auth", guard: authed, data: domain.User{},
			handler: h.handleMe},

		// Communities
		{method: http.MethodPost, path: "/api/v1/communities", id: "createCommunity", summary: "Register a PG community",
			tag: "communities", schema: validation.CommunityCreate, guard: founders, status: http.StatusCreated,
			data: domain.Community{}, handler: h.handleCreateCommunity},
		{method: http.MethodGet, path: "/api/v1/communities", id: "listCommunities", summary: "List PG communities",
			tag: "communities", schema: validation.CommunityList, guard: authed,
			data: []domain.Community{}, handler: h.handleListCommunities},
		{method: http.MethodGet, path: "/api/v1/communities/{id}", id: "getCommunity", summary: "Get a PG community",
			tag: "communities", schema: validation.CommunityGetByID, guard: authed,
			data: domain.Community{}, handler: h.handleGetCommunity},
		{method: http.MethodPatch, path: "/api/v1/communities/{id}", id: "updateCommunity", summary: "Update a PG community",
			tag: "communities", schema: validation.CommunityUpdate, guard: authed,
			data: domain.Community{}, handler: h.handleUpdateCommunity},

		// Technicians
		{method: http.MethodPost, path: "/api/v1/technicians", id: "createTechnician", summary: "Create a technician",
			tag: "technicians", schema: validation.TechnicianCreate, guard: managers, status: http.StatusCreated,
			data: domain.Technician{}, handler: h.handleCreateTechnician},
		{method: http.MethodGet, path: "/api/v1/technicians/{id}", id: "getTechnician", summary: "Get a technician",
			tag: "technicians", schema: validation.TechnicianGetByID, guard: viewers,
			data: domain.Technician{}, handler: h.handleGetTechnician},
		{method: http.MethodPatch, path: "/api/v1/technicians/{id}", id: "updateTechnician", summary: "Update a technician",
			tag: "technicians", schema: validation.TechnicianUpdate, guard: managers,
			data: domain.Technician{}, handler: h.handleUpdateTechnician},
		{method: http.MethodPost, path: "/api/v1/technicians/{id}/assign", id: "assignTechnician", summary: "Assign a technician to PG communities",
			tag: "technicians", schema: validation.TechnicianAssign, guard: managers,
			data: domain.Technician{}, handler: h.handleAssignTechnician},
		{method: http.MethodPatch, path: "/api/v1/technicians/{id}/availability", id: "updateTechnicianAvailability", summary: "Set technician availability",
			tag: "technicians", schema: validation.TechnicianUpdateAvailability, guard: managers,
			data: domain.Technician{}, handler: h.handleUpdateAvailability},
		{method: http.MethodGet, path: "/api/v1/communities/{pgCommunityId}/technicians", id: "listCommunityTechnicians", summary: "Technicians serving a PG community",
			tag: "technicians", schema: validation.TechnicianGetForPG, guard: viewers,
			data: []domain.Technician{}, handler: h.handleListCommunityTechnicians},
		{method: http.MethodGet, path: "/api/v1/communities/{pgCommunityId}/technicians/available", id: "listAvailableTechnicians", summary: "Available technicians in a PG community",
			tag: "technicians", schema: validation.TechnicianGetAvailable, guard: viewers,
			data: []domain.Technician{}, handler: h.handleListAvailableTechnicians},
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)
	r.Use(h.auth.Handler)

	docs := openapi.NewGenerator(openapi.WithVersion(h.version))

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/openapi.json", docs.Handler())

	for _, e := range h.endpoints() {
		var chain []func(http.Handler) http.Handler
		route := openapi.Route{
			Method:      e.method,
			Path:        e.path,
			OperationID: e.id,
			Summary:     e.summary,
			Tag:         e.tag,
			Response:    e.data,
			Status:      e.status,
			Secured:     e.guard != nil,
		}
		if e.guard != nil {
			chain = append(chain, e.guard)
		}
		if e.schema != "" {
			schema := h.registry.MustGet(e.schema)
			route.Schema = schema
			chain = append(chain, h.validator.Handler(schema))
		}
		r.With(chain...).Method(e.method, e.path, e.handler)
		docs.Register(route)
	}

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "check", "database", "error", err)
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	h.writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	middleware.WriteError(w, status, message)
}

// decode reads the JSON body into v. The validation gate has already
// checked its shape, so a failure here is a bad request that slipped past
// a permissive schema.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// domainErrors are rule violations the domain layer reports. They map to 400.
var domainErrors = []error{
	domain.ErrNameRequired,
	domain.ErrNameTooShort,
	domain.ErrNameTooLong,
	domain.ErrPhoneRequired,
	domain.ErrPhoneLength,
	domain.ErrPhoneInvalid,
	domain.ErrInvalidSpeciality,
	domain.ErrCommunityRequired,
	domain.ErrInvalidCommunityID,
	domain.ErrAddressLength,
	domain.ErrCityLength,
	domain.ErrOwnerRequired,
	domain.ErrInvalidRole,
	domain.ErrRoleNotRegistrable,
	domain.ErrPasswordTooLong,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeFailure maps store and domain errors to an error envelope.
// entity names the resource in not-found messages, e.g. "Technician".
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, entity string, err error) {
	switch {
	case isDomainError(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, store.ErrDuplicatePhone):
		h.writeError(w, http.StatusConflict, "Phone number already registered")
	case errors.Is(err, store.ErrForeignKey):
		h.writeError(w, http.StatusBadRequest, "One or more PG communities do not exist")
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		h.writeError(w, http.StatusInternalServerError, middleware.MessageInternalError)
	}
}
