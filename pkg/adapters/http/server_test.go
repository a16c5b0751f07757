package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/teamboard"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (http.Handler, *Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	board, err := teamboard.New(context.Background(), teamboard.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	srv := NewServer(board, WithGatherer(reg))
	return srv.Handler(), srv
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	assert.NotNil(t, doc.Paths.Find("/capabilities/search"))
	assert.NotNil(t, doc.Paths.Find("/pickers/{sid}/events"))
}

func TestHealthAndInfo(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[map[string]any](t, w)
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(teamboard.Version), info["version"])
	assert.Equal(t, "2025.2", info["taxonomy_version"])

	w = do(t, h, "GET", "/openapi.yaml", nil)
	assert.Contains(t, w.Body.String(), "Teamboard API")
}

func TestCORS(t *testing.T) {
	_, srv := newTestHandler(t)
	srv.corsOrigin = "https://board.example.com"
	h := srv.Handler()

	w := do(t, h, "OPTIONS", "/teams", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://board.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCapabilities(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "GET", "/capabilities?category=core", nil)
	require.Equal(t, http.StatusOK, w.Code)
	roots := decodeBody[[]domain.CapabilityNode](t, w)
	require.NotEmpty(t, roots)
	for _, r := range roots {
		assert.Equal(t, domain.CategoryCore, r.Category)
	}

	w = do(t, h, "GET", "/capabilities?category=support", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "GET", "/capabilities/tax-compliance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[map[string]any](t, w)
	assert.Equal(t, "Tax Compliance", got["name"])
	assert.Equal(t, []any{"Finance Management", "Taxes", "Tax Compliance"}, got["path"])

	w = do(t, h, "GET", "/capabilities/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "GET", "/capabilities/search?q=REGULATIONS", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[searchResponse](t, w)
	require.Len(t, res.Roots, 1)
	assert.Equal(t, "finance-management", res.Roots[0].ID)
	assert.NotEmpty(t, res.Roots[0].Children, "children are not pruned")
	assert.Equal(t, []string{"finance-management", "taxes", "tax-compliance"}, res.Expand)
	assert.Equal(t, []string{"tax-compliance"}, res.Matches)
	assert.False(t, res.NoResults)

	w = do(t, h, "GET", "/capabilities/search?q=zzzz-nothing", nil)
	res = decodeBody[searchResponse](t, w)
	assert.True(t, res.NoResults)
	assert.Empty(t, res.Roots)

	w = do(t, h, "GET", "/capabilities/search?level=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "GET", "/capabilities/search?level=1&category=enabling", nil)
	res = decodeBody[searchResponse](t, w)
	for _, r := range res.Roots {
		assert.Equal(t, domain.CategoryEnabling, r.Category)
	}
}

func TestTeams(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/teams", domain.Team{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	verr := decodeBody[errorResponse](t, w)
	assert.Contains(t, verr.Fields, "name")

	w = do(t, h, "POST", "/teams", domain.Team{Name: "Payments"})
	require.Equal(t, http.StatusCreated, w.Code)
	team := decodeBody[domain.Team](t, w)
	assert.Equal(t, "/teams/"+team.ID, w.Header().Get("Location"))

	w = do(t, h, "GET", "/teams", nil)
	assert.Len(t, decodeBody[[]domain.Team](t, w), 1)

	team.Description = "Moves money"
	w = do(t, h, "PUT", "/teams/"+team.ID, team)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Moves money", decodeBody[domain.Team](t, w).Description)

	w = do(t, h, "PUT", "/teams/"+team.ID+"/agreement", domain.WorkingAgreement{Body: "No meetings on Fridays."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No meetings on Fridays.", decodeBody[domain.Team](t, w).WorkingAgreement.Body)

	w = do(t, h, "DELETE", "/teams/"+team.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/teams/"+team.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest("POST", "/teams", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPickerFlow(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/teams", domain.Team{Name: "Payments"})
	team := decodeBody[domain.Team](t, w)

	w = do(t, h, "POST", "/teams/"+team.ID+"/picker", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeBody[domain.PickerView](t, w)
	sid := view.SessionID
	require.NotEmpty(t, sid)

	w = do(t, h, "POST", "/pickers/"+sid+"/events", domain.PickerAction{Type: domain.ActionSetQuery, Query: "regulations"})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeBody[domain.PickerView](t, w)
	require.NotEmpty(t, view.Rows)
	assert.Equal(t, "finance-management", view.Rows[0].ID)
	assert.True(t, view.Rows[0].Expanded)

	w = do(t, h, "POST", "/pickers/"+sid+"/events", domain.PickerAction{Type: domain.ActionToggleSelect})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "POST", "/pickers/"+sid+"/events", domain.PickerAction{Type: "explode"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "POST", "/pickers/"+sid+"/events", domain.PickerAction{Type: domain.ActionToggleSelect, NodeID: "tax-compliance"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "GET", "/pickers/"+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tax-compliance"}, decodeBody[domain.PickerView](t, w).Selected)

	w = do(t, h, "POST", "/pickers/"+sid+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tax-compliance"}, decodeBody[domain.Team](t, w).Capabilities)

	w = do(t, h, "GET", "/pickers/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "DELETE", "/pickers/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/teams/ghost/picker", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	do(t, h, "GET", "/capabilities/search?q=tax", nil)
	do(t, h, "POST", "/teams", domain.Team{Name: "Payments"})

	w := do(t, h, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `teamboard_filter_evaluations_total{kind="search",result="hit"} 1`)
	assert.Contains(t, body, `teamboard_team_writes_total{op="save"} 1`)
}

func TestSubscribeEvents_RequiresPicker(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(t, h, "GET", "/events", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeEvents_StreamsDiffs(t *testing.T) {
	h, srv := newTestHandler(t)
	ts := httptest.NewServer(h)
	defer ts.Close()
	client := ts.Client()

	post := func(path string, body any) *http.Response {
		payload, _ := json.Marshal(body)
		resp, err := client.Post(ts.URL+path, "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		return resp
	}

	resp := post("/teams", domain.Team{Name: "Payments"})
	var team domain.Team
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&team))
	resp.Body.Close()

	resp = post("/teams/"+team.ID+"/picker", nil)
	var view domain.PickerView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	sid := view.SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/events?picker_id="+sid+"&watch=selection", nil)
	require.NoError(t, err)
	stream, err := client.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}
	require.Equal(t, "connected", readData())
	require.Eventually(t, func() bool { return srv.Streams.Subscribers(sid) == 1 }, time.Second, 10*time.Millisecond)

	// Filtered out: the query change carries no selection delta.
	post("/pickers/"+sid+"/events", domain.PickerAction{Type: domain.ActionSetQuery, Query: "tax"}).Body.Close()
	post("/pickers/"+sid+"/events", domain.PickerAction{Type: domain.ActionToggleSelect, NodeID: "taxes"}).Body.Close()

	var diff domain.PickerDiff
	require.NoError(t, json.Unmarshal([]byte(readData()), &diff))
	assert.Nil(t, diff.Query)
	require.NotNil(t, diff.Selection)
	assert.Equal(t, []string{"taxes"}, diff.Selection.Added)

	post("/pickers/"+sid+"/confirm", nil).Body.Close()
	var closed closedMessage
	require.NoError(t, json.Unmarshal([]byte(readData()), &closed))
	assert.Equal(t, domain.OutcomeConfirmed, closed.Closed)

	cancel()
	assert.Eventually(t, func() bool { return srv.Streams.Subscribers(sid) == 0 }, time.Second, 10*time.Millisecond)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(slogDiscard())

	ch, unsubscribe := sm.Subscribe("s1")
	sm.Broadcast("s1", "one")
	sm.Broadcast("s2", "elsewhere")
	assert.Equal(t, "one", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("s1", "flood")
	}
	assert.Len(t, ch, 10, "overflow is dropped")

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, sm.Subscribers("s1"))
}

func TestWanted(t *testing.T) {
	assert.True(t, wanted(`{"session_id":"s","query":"x"}`, nil))
	assert.True(t, wanted(`{"session_id":"s","query":"x"}`, []string{"query"}))
	assert.False(t, wanted(`{"session_id":"s","query":"x"}`, []string{"selection", "expansion"}))
	assert.True(t, wanted(`{"session_id":"s","closed":"canceled"}`, []string{"selection"}))
}
