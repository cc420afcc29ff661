package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"GlobalStore/internal/events"
	"GlobalStore/pkg/kit"
)

const keepAliveInterval = 15 * time.Second

// events streams every state change as a server-sent event until the client
// goes away. Nothing is replayed; clients re-read state on connect.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	changes, stop := events.Merge(s.App.Sources()...)
	defer stop()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := writeEvent(w, c); err != nil {
				s.Log.Debug("event stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, c events.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", c.Topic, data)
	return err
}
