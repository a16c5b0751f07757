package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/teamboard"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/go-chi/chi/v5"
)

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	tax := s.Board.Taxonomy()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":              "teamboard-http",
		"version":          strings.TrimSpace(teamboard.Version),
		"api_version":      apiVersion,
		"taxonomy_version": tax.Version(),
		"taxonomy_source":  tax.Source(),
		"capabilities":     tax.Len(),
	})
}

// ListCapabilities handles GET /capabilities.
func (s *Server) ListCapabilities(w http.ResponseWriter, r *http.Request) {
	c, err := parseCategory(r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	roots := s.Board.Taxonomy().Roots(c)
	if roots == nil {
		roots = []*domain.CapabilityNode{}
	}
	s.writeJSON(w, http.StatusOK, roots)
}

type searchResponse struct {
	Roots     []*domain.CapabilityNode `json:"roots"`
	Expand    []string                 `json:"expand"`
	Matches   []string                 `json:"matches"`
	NoResults bool                     `json:"no_results"`
}

// SearchCapabilities handles GET /capabilities/search?q=&level=&category=.
func (s *Server) SearchCapabilities(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := hierarchy.Query{Text: params.Get("q")}
	if raw := params.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid level %q", raw)})
			return
		}
		q.Level = level
	}
	c, err := parseCategory(params.Get("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q.Category = c

	res := s.Board.Search(r.Context(), q)
	roots := res.VisibleRoots
	if roots == nil {
		roots = []*domain.CapabilityNode{}
	}
	s.writeJSON(w, http.StatusOK, searchResponse{
		Roots:     roots,
		Expand:    res.Expand.IDs(),
		Matches:   res.Matches.IDs(),
		NoResults: res.Empty(),
	})
}

type capabilityResponse struct {
	*domain.CapabilityNode
	Path []string `json:"path"`
}

// GetCapability handles GET /capabilities/{id}.
func (s *Server) GetCapability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := s.Board.Capability(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, capabilityResponse{
		CapabilityNode: n,
		Path:           s.Board.Taxonomy().Path(id),
	})
}

// ListTeams handles GET /teams.
func (s *Server) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.Board.ListTeams(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if teams == nil {
		teams = []*domain.Team{}
	}
	s.writeJSON(w, http.StatusOK, teams)
}

// CreateTeam handles POST /teams.
func (s *Server) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var body domain.Team
	if !s.decode(w, r, &body) {
		return
	}
	team, err := s.Board.CreateTeam(r.Context(), &body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/teams/"+team.ID)
	s.writeJSON(w, http.StatusCreated, team)
}

// GetTeam handles GET /teams/{id}.
func (s *Server) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.Board.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, team)
}

// UpdateTeam handles PUT /teams/{id}. The path id wins over the body's.
func (s *Server) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var body domain.Team
	if !s.decode(w, r, &body) {
		return
	}
	body.ID = chi.URLParam(r, "id")
	team, err := s.Board.UpdateTeam(r.Context(), &body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, team)
}

// DeleteTeam handles DELETE /teams/{id}.
func (s *Server) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := s.Board.DeleteTeam(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateWorkingAgreement handles PUT /teams/{id}/agreement.
func (s *Server) UpdateWorkingAgreement(w http.ResponseWriter, r *http.Request) {
	var body domain.WorkingAgreement
	if !s.decode(w, r, &body) {
		return
	}
	team, err := s.Board.UpdateWorkingAgreement(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, team)
}

// OpenPicker handles POST /teams/{id}/picker.
func (s *Server) OpenPicker(w http.ResponseWriter, r *http.Request) {
	view, err := s.Board.OpenPicker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/pickers/"+view.SessionID)
	s.writeJSON(w, http.StatusCreated, view)
}

// GetPicker handles GET /pickers/{sid}.
func (s *Server) GetPicker(w http.ResponseWriter, r *http.Request) {
	view, err := s.Board.Picker(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// PickerEvent handles POST /pickers/{sid}/events and streams the resulting
// diff to SSE subscribers.
func (s *Server) PickerEvent(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")

	var action domain.PickerAction
	if !s.decode(w, r, &action) {
		return
	}

	view, diff, err := s.Board.UpdatePicker(r.Context(), sid, action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if diff != nil && !diff.IsEmpty() {
		s.logger.Debug("PickerEvent: Diff calculated", "session_id", sid, "action", action.Type)
		if payload, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(sid, string(payload))
		}
	}
	s.writeJSON(w, http.StatusOK, view)
}

type closedMessage struct {
	SessionID string               `json:"session_id"`
	Closed    domain.PickerOutcome `json:"closed"`
}

func (s *Server) broadcastClosed(sid string, outcome domain.PickerOutcome) {
	if payload, err := json.Marshal(closedMessage{SessionID: sid, Closed: outcome}); err == nil {
		s.Streams.Broadcast(sid, string(payload))
	}
}

// ConfirmPicker handles POST /pickers/{sid}/confirm.
func (s *Server) ConfirmPicker(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	team, err := s.Board.ConfirmPicker(r.Context(), sid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcastClosed(sid, domain.OutcomeConfirmed)
	s.writeJSON(w, http.StatusOK, team)
}

// CancelPicker handles DELETE /pickers/{sid}.
func (s *Server) CancelPicker(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if err := s.Board.CancelPicker(r.Context(), sid); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcastClosed(sid, domain.OutcomeCanceled)
	w.WriteHeader(http.StatusNoContent)
}
