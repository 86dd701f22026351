package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/royceleh/polly/internal/logging"

	"github.com/gorilla/websocket"
)

// homeHub fans fresh tallies out to every connected market listing. The
// page still reloads after a vote; the hub keeps idle viewers current.
type homeHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHomeHub() *homeHub {
	return &homeHub{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *homeHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *homeHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	_ = conn.Close()
}

func (h *homeHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *homeHub) Broadcast(payload any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(conn)
		}
	}
}

func (s *Server) handleHomeWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	logging.Log.WithField("remote", r.RemoteAddr).Debug("home ws connected")
	s.homeWS.Add(conn)
	if tallies, err := s.market.ListPollsWithTallies(0); err == nil {
		s.homeWS.Send(conn, map[string]any{"polls": tallies})
	}
	go s.readHomeWS(conn)
}

func (s *Server) readHomeWS(conn *websocket.Conn) {
	defer s.homeWS.Remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logging.Log.WithError(err).Debug("home ws disconnected")
			return
		}
	}
}

func (s *Server) broadcastHomeUpdate() {
	if s.homeWS == nil {
		return
	}
	tallies, err := s.market.ListPollsWithTallies(0)
	if err != nil {
		return
	}
	s.homeWS.Broadcast(map[string]any{"polls": tallies})
}
