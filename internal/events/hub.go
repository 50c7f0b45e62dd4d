package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans mapping events out to connected WebSocket clients.
// Broadcast is best-effort: a slow or dead client gets dropped, and
// the write path that triggered the event never blocks on it.
type Hub struct {
	mu        sync.Mutex
	wsClients map[*websocket.Conn]struct{}
}

type Stats struct {
	WSClients int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{
		wsClients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.wsClients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		WSClients: len(h.wsClients),
	}
}
