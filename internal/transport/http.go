package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/codepulse/internal/domain/activity"
	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/metrics"
	"github.com/rpggio/codepulse/internal/structure"
)

// ProjectService is the project operations used by the HTTP routes.
type ProjectService interface {
	GetOrCreate(ctx context.Context, req project.CreateRequest) (*project.CreateResult, error)
	UpdateStructure(ctx context.Context, recordID string, doc structure.Document) error
	GetStructure(ctx context.Context, recordID string) (*project.Record, structure.Document, error)
}

// SessionService is the heartbeat operation used by the HTTP routes.
type SessionService interface {
	UpdateHeartbeat(ctx context.Context, req session.HeartbeatRequest) error
}

// ActivityService is the read side used by the summary routes.
type ActivityService interface {
	ListProjects(ctx context.Context, userID string) (*activity.ProjectList, error)
	SummarizeProject(ctx context.Context, recordID string) (*activity.ProjectSummary, error)
}

// Config wires the HTTP server. MetricsHandler and MCPHandler are optional.
type Config struct {
	Projects       ProjectService
	Sessions       SessionService
	Activity       ActivityService
	Identity       UserResolver
	APIKey         string
	Metrics        metrics.Provider
	MetricsHandler http.Handler
	MCPHandler     http.Handler
	Logger         *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	projects ProjectService
	sessions SessionService
	activity ActivityService
	logger   *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Noop()
	}

	identity := cfg.Identity
	if identity == nil {
		identity = denyAll{}
	}

	srv := &Server{
		projects: cfg.Projects,
		sessions: cfg.Sessions,
		activity: cfg.Activity,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware(m))
	r.Use(SecurityHeaders)
	r.Use(CORS())

	r.Get("/health", srv.handleHealth)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.MCPHandler != nil {
		r.Handle("/mcp", cfg.MCPHandler)
		r.Handle("/mcp/*", cfg.MCPHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(APIKeyMiddleware(cfg.APIKey))

		r.Get("/hello", srv.handleHello)
		r.Post("/project", srv.handleCreateProject)
		r.Put("/project/{recordID}", srv.handleUpdateProject)
		r.Put("/activity", srv.handleHeartbeat)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(identity))

			r.Get("/project/{recordID}/structure", srv.handleGetStructure)
			r.Get("/summary/activity", srv.handleActivitySummary)
			r.Get("/summary/project/{recordID}", srv.handleProjectSummary)
		})
	})

	return r
}

type denyAll struct{}

func (denyAll) ResolveUser(context.Context, string) (string, error) {
	return "", ErrUnauthorized
}

type createProjectRequest struct {
	ProjectPath      string              `json:"project_path" validate:"required"`
	UserID           string              `json:"user_id" validate:"required"`
	InitialStructure *structure.Document `json:"initial_structure"`
}

type updateProjectRequest struct {
	ProjectStructure *structure.Document `json:"project_structure"`
}

type heartbeatRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	IsOnline        bool   `json:"is_online"`
	IsEditorFocused bool   `json:"is_editor_focused"`
	FocusDuration   int64  `json:"focus_duration" validate:"min:0"`
	TotalDuration   int64  `json:"total_duration" validate:"min:0"`
}

type projectResponse struct {
	RecordID         string             `json:"record_id"`
	ProjectStructure structure.Document `json:"project_structure"`
}

type messageResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type activitySummaryResponse struct {
	Error    bool                    `json:"error"`
	Message  string                  `json:"message"`
	Projects []activity.ProjectRef   `json:"projects"`
	Context  activity.SessionContext `json:"activity_context"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleHello(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": "hello"})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := s.projects.GetOrCreate(r.Context(), project.CreateRequest{
		ProjectPath:      req.ProjectPath,
		UserID:           req.UserID,
		InitialStructure: req.InitialStructure,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, projectResponse{RecordID: result.RecordID, ProjectStructure: result.Structure})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.ProjectStructure == nil {
		WriteError(w, project.ErrInvalidInput)
		return
	}

	if err := s.projects.UpdateStructure(r.Context(), chi.URLParam(r, "recordID"), *req.ProjectStructure); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, messageResponse{Message: "project structure updated"})
}

func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	rec, doc, err := s.projects.GetStructure(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, projectResponse{RecordID: rec.ID, ProjectStructure: doc})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	err := s.sessions.UpdateHeartbeat(r.Context(), session.HeartbeatRequest{
		UserID:          req.UserID,
		IsOnline:        req.IsOnline,
		IsEditorFocused: req.IsEditorFocused,
		FocusDuration:   req.FocusDuration,
		TotalDuration:   req.TotalDuration,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, messageResponse{Message: "user activity updated"})
}

func (s *Server) handleActivitySummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())
	list, err := s.activity.ListProjects(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, activitySummaryResponse{
		Message:  "data loaded",
		Projects: list.Projects,
		Context:  list.Context,
	})
}

func (s *Server) handleProjectSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.activity.SummarizeProject(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, _ := MapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	WriteError(w, err)
}
