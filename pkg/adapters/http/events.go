package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/tilbot/pkg/domain"
)

// SubscribeEvents handles the GET /events request (SSE).
// session_id restricts the stream to one session; watch takes a comma list
// of block, status, path, variables and error, and drops diffs touching none
// of them.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	ch := s.Streams.Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("SSE: client subscribed", "session_id", sessionID)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case diff, ok := <-ch:
			if !ok {
				return
			}
			if sessionID != "" && diff.SessionID != sessionID {
				continue
			}
			if len(watchList) > 0 && !watched(diff, watchList) {
				continue
			}
			data, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: diff encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func watched(diff *domain.StateDiff, fields []string) bool {
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "block":
			if diff.CurrentBlockID != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "path":
			if diff.Path != nil {
				return true
			}
		case "variables":
			if len(diff.Variables) > 0 {
				return true
			}
		case "error":
			if diff.Err != nil {
				return true
			}
		}
	}
	return false
}
