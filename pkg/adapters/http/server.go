package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/teamboard/internal/logging"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/aretw0/teamboard/pkg/picker"
	"github.com/aretw0/teamboard/pkg/taxonomy"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Board is the part of teamboard.Board the HTTP API drives.
type Board interface {
	Taxonomy() *taxonomy.Store
	Search(ctx context.Context, q hierarchy.Query) hierarchy.Result
	Capability(id string) (*domain.CapabilityNode, error)

	ListTeams(ctx context.Context) ([]*domain.Team, error)
	GetTeam(ctx context.Context, id string) (*domain.Team, error)
	CreateTeam(ctx context.Context, t *domain.Team) (*domain.Team, error)
	UpdateTeam(ctx context.Context, t *domain.Team) (*domain.Team, error)
	UpdateWorkingAgreement(ctx context.Context, id string, wa domain.WorkingAgreement) (*domain.Team, error)
	DeleteTeam(ctx context.Context, id string) error

	OpenPicker(ctx context.Context, teamID string) (domain.PickerView, error)
	Picker(ctx context.Context, sessionID string) (domain.PickerView, error)
	UpdatePicker(ctx context.Context, sessionID string, action domain.PickerAction) (domain.PickerView, *domain.PickerDiff, error)
	ConfirmPicker(ctx context.Context, sessionID string) (*domain.Team, error)
	CancelPicker(ctx context.Context, sessionID string) error
}

// Server serves the teamboard REST API.
type Server struct {
	Board   Board
	Streams *StreamManager

	logger     *slog.Logger
	gatherer   prometheus.Gatherer
	corsOrigin string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry served on /metrics (default: the global one).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithCORSOrigin sets Access-Control-Allow-Origin (default "*").
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		s.corsOrigin = origin
	}
}

// NewServer creates a Server; Handler returns its routes.
func NewServer(board Board, opts ...Option) *Server {
	s := &Server{
		Board:      board,
		logger:     logging.NewNop(),
		gatherer:   prometheus.DefaultGatherer,
		corsOrigin: "*",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the board.
func NewHandler(board Board, opts ...Option) http.Handler {
	return NewServer(board, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/capabilities", func(r chi.Router) {
		r.Get("/", s.ListCapabilities)
		r.Get("/search", s.SearchCapabilities)
		r.Get("/{id}", s.GetCapability)
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", s.ListTeams)
		r.Post("/", s.CreateTeam)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTeam)
			r.Put("/", s.UpdateTeam)
			r.Delete("/", s.DeleteTeam)
			r.Put("/agreement", s.UpdateWorkingAgreement)
			r.Post("/picker", s.OpenPicker)
		})
	})

	r.Route("/pickers/{sid}", func(r chi.Router) {
		r.Get("/", s.GetPicker)
		r.Delete("/", s.CancelPicker)
		r.Post("/events", s.PickerEvent)
		r.Post("/confirm", s.ConfirmPicker)
	})

	r.Get("/events", s.SubscribeEvents)

	return s.enableCORS(r)
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Teamboard API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Helpers --

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid team", Fields: verr.Fields})
	case errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrPickerNotFound),
		errors.Is(err, domain.ErrCapabilityNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, picker.ErrUnknownAction),
		errors.Is(err, picker.ErrInvalidAction),
		errors.Is(err, domain.ErrInvalidTeam):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func parseCategory(raw string) (domain.Category, error) {
	c := domain.Category(strings.ToLower(strings.TrimSpace(raw)))
	if c != "" && !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", picker.ErrInvalidAction, raw)
	}
	return c, nil
}
