package sse

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/canvasflow/logger"
)

// StreamOptions tunes Serve.
type StreamOptions struct {
	// KeepAlive is the comment interval. Zero means 30s.
	KeepAlive time.Duration
	// Terminal ends the stream after an event of this type is written.
	Terminal string
	// OnRegistered runs once the client receives broadcasts, so callers can
	// send catch-up events without a gap.
	OnRegistered func(c *Client)
}

// Serve streams events for a client with the given id until the request
// ends, the hub stops, or a terminal event is written.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts StreamOptions) {
	log := hub.log.WithContext(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}

	// SSE connections outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("sse write deadline not cleared", logger.Fields("client_id", clientID, logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	client := NewClient(clientID, hub.log)
	if !hub.Register(client) {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	connected, _ := NewEvent(EventConnected, map[string]string{"clientId": clientID})
	_, _ = connected.WriteTo(w)
	flusher.Flush()

	if opts.OnRegistered != nil {
		opts.OnRegistered(client)
	}

	ticker := time.NewTicker(opts.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-client.Events():
			if !ok {
				return
			}
			if _, err := ev.WriteTo(w); err != nil {
				return
			}
			flusher.Flush()
			if opts.Terminal != "" && ev.Type == opts.Terminal {
				return
			}
		case <-ticker.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
