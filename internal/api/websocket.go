package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	wsBufferSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket upgrades the connection and streams a run's event
// envelopes over it. The stream closes when the run finishes and its
// buffer is drained, mirroring the HTTP stream route.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	handlerID := chi.URLParam(r, "handlerID")

	stream, err := s.runtime.StreamEvents(r.Context(), handlerID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "handler_id", handlerID, "error", err)
		return
	}

	// The stream is bound to the request context, so the pump loop runs
	// in the handler goroutine rather than detaching.
	s.runWebSocket(conn, stream, handlerID)
}

func (s *Server) runWebSocket(conn *websocket.Conn, stream <-chan events.Event, handlerID string) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Drain client frames so pongs and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-stream:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				return
			}

			payload, err := events.Encode(ev)
			if err != nil {
				s.logger.Error("failed to encode event", "handler_id", handlerID, "error", err)
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("websocket write failed", "handler_id", handlerID, "error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
