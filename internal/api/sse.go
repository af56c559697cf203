// ABOUTME: Server-Sent Events endpoint for live message delivery
// ABOUTME: Bridges broadcaster subscriptions onto long-lived HTTP streams

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quillchat/quill/internal/auth"
)

// handleEvents handles GET /api/events?channel=conversation.<id>.
//
// The channel authorization check runs on every subscription attempt:
// a caller may only stream their own channel, regardless of token validity.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity := auth.FromContext(r.Context())
	if identity == nil {
		s.sendJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	channel := r.URL.Query().Get("channel")
	if channel == "" {
		s.sendJSONError(w, http.StatusBadRequest, "channel is required")
		return
	}

	if !auth.CanSubscribe(identity, channel) {
		s.logger.Warn("channel subscription denied",
			"user_id", identity.UserID,
			"channel", channel)
		s.sendJSONError(w, http.StatusForbidden, "cannot subscribe to this channel")
		return
	}

	// Check streaming support before subscribing (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("streaming not supported")
		s.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, subID := s.broadcaster.Subscribe(r.Context(), channel)
	s.logger.Debug("SSE stream opened",
		"user_id", identity.UserID,
		"channel", channel,
		"sub_id", subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	s.writeSSEEvent(w, "subscribed", map[string]string{"channel": channel})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			s.writeSSEEvent(w, ev.Event, toMessageResponse(ev.Message))
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a single SSE event to the response writer.
func (s *Server) writeSSEEvent(w http.ResponseWriter, event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}
