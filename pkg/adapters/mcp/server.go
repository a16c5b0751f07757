package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/teamboard"
	"github.com/aretw0/teamboard/internal/logging"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/aretw0/teamboard/pkg/taxonomy"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const taxonomyURI = "teamboard://taxonomy"

// Board is the part of teamboard.Board exposed to MCP clients.
type Board interface {
	Taxonomy() *taxonomy.Store
	Search(ctx context.Context, q hierarchy.Query) hierarchy.Result
	Capability(id string) (*domain.CapabilityNode, error)
	ListTeams(ctx context.Context) ([]*domain.Team, error)
	GetTeam(ctx context.Context, id string) (*domain.Team, error)
	SetCapabilities(ctx context.Context, id string, ids []string) (*domain.Team, error)
}

// Server wraps the Board and exposes it as an MCP Server.
type Server struct {
	board     Board
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(board Board, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		board:     board,
		logger:    logger,
		mcpServer: server.NewMCPServer("teamboard-mcp", strings.TrimSpace(teamboard.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// -- Tool payloads --

type SearchArgs struct {
	Query    string `json:"query"`
	Level    int    `json:"level"`
	Category string `json:"category"`
}

// CapabilityHit is one matching capability with its path from the root.
type CapabilityHit struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Level int      `json:"level"`
	Path  []string `json:"path" jsonschema_description:"Names from the level-1 capability down to this one"`
}

type SearchResponse struct {
	Matches      []CapabilityHit `json:"matches"`
	VisibleRoots []string        `json:"visible_roots" jsonschema_description:"Level-1 capability ids that contain a match"`
	NoResults    bool            `json:"no_results"`
}

type IDArgs struct {
	ID string `json:"id"`
}

type CapabilityDetail struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Level       int      `json:"level"`
	Category    string   `json:"category"`
	Domain      string   `json:"domain,omitempty"`
	Description string   `json:"description,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	Path        []string `json:"path"`
	Children    []string `json:"children"`
}

type TeamSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Capabilities int    `json:"capabilities"`
}

type TeamList struct {
	Teams []TeamSummary `json:"teams"`
}

type TeamDetail struct {
	Team         *domain.Team    `json:"team"`
	Capabilities []CapabilityHit `json:"capabilities" jsonschema_description:"Tagged capabilities that exist in the current taxonomy"`
	Unknown      []string        `json:"unknown,omitempty" jsonschema_description:"Tagged ids missing from the current taxonomy"`
}

type SetCapabilitiesArgs struct {
	TeamID        string   `json:"team_id"`
	CapabilityIDs []string `json:"capability_ids"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("search_capabilities",
		mcp.WithDescription("Search the capability taxonomy by case-insensitive substring over name, domain and description, optionally restricted to a level (1-3) and a category (core or enabling)."),
		mcp.WithString("query", mcp.Description("Text to look for")),
		mcp.WithNumber("level", mcp.Description("Only match capabilities at this level (1-3); 0 disables")),
		mcp.WithString("category", mcp.Description("core or enabling"), mcp.Enum("core", "enabling")),
		mcp.WithOutputSchema[SearchResponse](),
	), mcp.NewStructuredToolHandler(s.handleSearch))

	s.mcpServer.AddTool(mcp.NewTool("get_capability",
		mcp.WithDescription("Get one capability with its path and child ids."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Capability id")),
		mcp.WithOutputSchema[CapabilityDetail](),
	), mcp.NewStructuredToolHandler(s.handleGetCapability))

	s.mcpServer.AddTool(mcp.NewTool("list_teams",
		mcp.WithDescription("List every team with the number of capabilities it is tagged with."),
		mcp.WithOutputSchema[TeamList](),
	), mcp.NewStructuredToolHandler(s.handleListTeams))

	s.mcpServer.AddTool(mcp.NewTool("get_team",
		mcp.WithDescription("Get a team, including its working agreement and resolved capabilities."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Team id")),
		mcp.WithOutputSchema[TeamDetail](),
	), mcp.NewStructuredToolHandler(s.handleGetTeam))

	s.mcpServer.AddTool(mcp.NewTool("set_team_capabilities",
		mcp.WithDescription("Replace the capabilities a team is tagged with. Order is kept and duplicates collapse; ids unknown to the taxonomy are stored and reported."),
		mcp.WithString("team_id", mcp.Required(), mcp.Description("Team id")),
		mcp.WithArray("capability_ids", mcp.Required(), mcp.Description("Capability ids in display order"), mcp.WithStringItems()),
		mcp.WithOutputSchema[TeamDetail](),
	), mcp.NewStructuredToolHandler(s.handleSetCapabilities))
}

func (s *Server) hit(n *domain.CapabilityNode) CapabilityHit {
	return CapabilityHit{
		ID:    n.ID,
		Name:  n.Name,
		Level: n.Level,
		Path:  s.board.Taxonomy().Path(n.ID),
	}
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args SearchArgs) (SearchResponse, error) {
	c := domain.Category(strings.ToLower(args.Category))
	if c != "" && !c.Valid() {
		return SearchResponse{}, fmt.Errorf("unknown category %q", args.Category)
	}

	res := s.board.Search(ctx, hierarchy.Query{Text: args.Query, Level: args.Level, Category: c})

	resp := SearchResponse{
		Matches:      []CapabilityHit{},
		VisibleRoots: make([]string, 0, len(res.VisibleRoots)),
		NoResults:    res.Empty(),
	}
	for _, r := range res.VisibleRoots {
		resp.VisibleRoots = append(resp.VisibleRoots, r.ID)
	}
	for _, id := range res.Matches.IDs() {
		if n, ok := s.board.Taxonomy().Lookup(id); ok {
			resp.Matches = append(resp.Matches, s.hit(n))
		}
	}
	return resp, nil
}

func (s *Server) handleGetCapability(ctx context.Context, request mcp.CallToolRequest, args IDArgs) (CapabilityDetail, error) {
	n, err := s.board.Capability(args.ID)
	if err != nil {
		return CapabilityDetail{}, err
	}
	children := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, c.ID)
	}
	return CapabilityDetail{
		ID:          n.ID,
		Name:        n.Name,
		Level:       n.Level,
		Category:    string(n.Category),
		Domain:      n.Domain,
		Description: n.Description,
		ParentID:    n.ParentID,
		Path:        s.board.Taxonomy().Path(n.ID),
		Children:    children,
	}, nil
}

func (s *Server) handleListTeams(ctx context.Context, request mcp.CallToolRequest, _ struct{}) (TeamList, error) {
	teams, err := s.board.ListTeams(ctx)
	if err != nil {
		return TeamList{}, fmt.Errorf("list teams failed: %w", err)
	}
	out := TeamList{Teams: make([]TeamSummary, 0, len(teams))}
	for _, t := range teams {
		out.Teams = append(out.Teams, TeamSummary{ID: t.ID, Name: t.Name, Capabilities: len(t.Capabilities)})
	}
	return out, nil
}

func (s *Server) detail(team *domain.Team) TeamDetail {
	known, unknown := s.board.Taxonomy().Resolve(team.Capabilities)
	d := TeamDetail{
		Team:         team,
		Capabilities: make([]CapabilityHit, 0, len(known)),
		Unknown:      unknown,
	}
	for _, n := range known {
		d.Capabilities = append(d.Capabilities, s.hit(n))
	}
	return d
}

func (s *Server) handleGetTeam(ctx context.Context, request mcp.CallToolRequest, args IDArgs) (TeamDetail, error) {
	team, err := s.board.GetTeam(ctx, args.ID)
	if err != nil {
		return TeamDetail{}, err
	}
	return s.detail(team), nil
}

func (s *Server) handleSetCapabilities(ctx context.Context, request mcp.CallToolRequest, args SetCapabilitiesArgs) (TeamDetail, error) {
	if args.TeamID == "" {
		return TeamDetail{}, errors.New("team_id is required")
	}
	team, err := s.board.SetCapabilities(ctx, args.TeamID, args.CapabilityIDs)
	if err != nil {
		return TeamDetail{}, err
	}
	d := s.detail(team)
	if len(d.Unknown) > 0 {
		s.logger.Warn("MCP: team tagged with unknown capabilities", "team_id", team.ID, "unknown", d.Unknown)
	}
	return d, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(taxonomyURI, "Capability Taxonomy",
		mcp.WithResourceDescription("The full capability forest as nested JSON"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.board.Taxonomy().Forest())
		if err != nil {
			return nil, fmt.Errorf("failed to encode taxonomy: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      taxonomyURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
