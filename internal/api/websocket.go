package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/dvr/internal/events"
)

const watchWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-site WebSocket hijacking: only same-origin or localhost browsers.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.Contains(origin, "://localhost:") || strings.Contains(origin, "://127.0.0.1:") {
			return true
		}
		if rest, ok := strings.CutPrefix(origin, "http://"); ok {
			return rest == r.Host
		}
		if rest, ok := strings.CutPrefix(origin, "https://"); ok {
			return rest == r.Host
		}
		return false
	},
}

// handleWatch streams route change events as JSON text frames until the
// client goes away or the server shuts down.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || s.hub == nil {
		notFound(w)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		notFound(w)
		return
	}
	s.watchers.Add(1)
	s.mu.Unlock()
	defer s.watchers.Done()

	// Subscribe before the handshake completes so a client sees every
	// change made after its dial returns.
	sub := s.hub.Subscribe(64, events.EventRouteAdded, events.EventRouteDeleted)
	defer s.hub.Unsubscribe(sub)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Debug("watch upgrade failed", "error", err)
		return
	}

	// The client never sends data; reading surfaces its close frame or a dead connection.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-gone
	}()

	s.logger.Debug("watch stream opened", "remote", r.RemoteAddr)
	for {
		select {
		case e := <-sub:
			conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-gone:
			return
		case <-s.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
