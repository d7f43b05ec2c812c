// ABOUTME: Long-lived heartbeat stream bound to the connection's lifetime.
// ABOUTME: Emit-only SSE channel; disconnection is logged, never treated as an error.

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// heartbeatFrame is the periodic liveness message sent over /stream.
type heartbeatFrame struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// handleStream handles GET /stream requests by upgrading to a persistent
// SSE connection and emitting a heartbeat frame on every interval tick
// until the peer disconnects or a write fails. Nothing is ever read from
// the peer. The loop's lifetime is exactly the connection's lifetime;
// there is no external cancellation hook.
func (g *Gateway) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		g.logger.Error("streaming not supported")
		g.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	g.logger.Info("stream connected", "remote", r.RemoteAddr)

	// First heartbeat immediately, then one per interval.
	if err := g.writeHeartbeat(w); err != nil {
		g.logger.Info("stream closed", "remote", r.RemoteAddr, "reason", err)
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(g.config.Stream.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			g.logger.Info("stream disconnected", "remote", r.RemoteAddr)
			return
		case <-ticker.C:
			if err := g.writeHeartbeat(w); err != nil {
				g.logger.Info("stream closed", "remote", r.RemoteAddr, "reason", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeHeartbeat writes a single heartbeat SSE event.
func (g *Gateway) writeHeartbeat(w http.ResponseWriter) error {
	frame := heartbeatFrame{
		Type:      "heartbeat",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: heartbeat\ndata: %s\n\n", data); err != nil {
		return err
	}
	return nil
}
