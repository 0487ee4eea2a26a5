package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/louisbranch/flatline/internal/platform/timeouts"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
)

// wsBuffer is how many entries a websocket client may lag behind before it
// is disconnected.
const wsBuffer = 256

// handleLogStream upgrades to a websocket and pushes every entry published
// after the connection opens as one JSON text frame.
func (h *Handler) handleLogStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := logfeed.NewChannel(h.engine.SubscribeLogs, wsBuffer)
	defer ch.Close()

	// The read loop only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	closeWith := func(code int, reason string) {
		deadline := time.Now().Add(timeouts.WebsocketWrite)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	}

	for {
		select {
		case <-gone:
			return
		case <-h.engine.LogsDone():
			closeWith(websocket.CloseGoingAway, "log feed closed")
			return
		case entry, ok := <-ch.C:
			if !ok {
				if ch.Overflowed() {
					closeWith(websocket.CloseTryAgainLater, "subscriber fell behind")
				} else {
					closeWith(websocket.CloseGoingAway, "log feed closed")
				}
				return
			}
			data, err := json.Marshal(entry)
			if err != nil {
				h.logger.Printf("encode log entry: %v", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(timeouts.WebsocketWrite))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), origins whose host matches the request host, and any origin in
// allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	extra := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin != "" {
			extra[origin] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if extra["*"] || extra[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
