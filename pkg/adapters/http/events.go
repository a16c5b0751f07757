package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SubscribeEvents handles GET /events?picker_id= (SSE). The optional watch
// parameter restricts the stream to diffs touching the listed fields.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("picker_id")
	if sid == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "picker_id is required"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var watchList []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				watchList = append(watchList, f)
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sid)
	defer cancel()
	s.logger.Info("SSE: Subscribing to picker updates", "session_id", sid)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", sid)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !wanted(msg, watchList) {
				continue
			}

			event := "diff"
			if strings.Contains(msg, `"closed"`) {
				event = "closed"
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, msg)
			flusher.Flush()
		}
	}
}

// wanted reports whether a message carries any of the watched top-level keys.
func wanted(msg string, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(msg), &fields); err != nil {
		return true
	}
	if _, closed := fields["closed"]; closed {
		return true
	}
	for _, f := range watchList {
		if _, ok := fields[f]; ok {
			return true
		}
	}
	return false
}
