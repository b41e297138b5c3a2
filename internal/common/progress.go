package common

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ProgressStreamer broadcasts a pipeline's progress events to any
// connected websocket client, mirroring the teacher's
// internal/handlers/websocket.go log-push pattern but scoped to a single
// citeflex CLI run instead of a long-lived server's event bus.
type ProgressStreamer struct {
	logger  arbor.ILogger
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewProgressStreamer builds an idle streamer; mount Handler on an HTTP
// server to accept subscribers before a pipeline run starts.
func NewProgressStreamer(logger arbor.ILogger) *ProgressStreamer {
	return &ProgressStreamer{logger: logger, clients: make(map[*websocket.Conn]struct{})}
}

// Handler upgrades an incoming request to a websocket connection and
// registers it as a progress subscriber.
func (s *ProgressStreamer) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("progress: upgrade failed")
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
}

type progressMessage struct {
	Stage string `json:"stage"`
	Pct   int    `json:"pct"`
}

// Func returns a reporter that broadcasts every call to every currently
// connected client, dropping any connection that errors on write. The
// returned value is assignable directly to pipeline.ProgressFunc.
func (s *ProgressStreamer) Func() func(stage string, pct int) {
	return func(stage string, pct int) {
		payload, err := json.Marshal(progressMessage{Stage: stage, Pct: pct})
		if err != nil {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for conn := range s.clients {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(s.clients, conn)
			}
		}
	}
}

// Close drops every connected client.
func (s *ProgressStreamer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}
