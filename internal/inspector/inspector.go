// Package inspector is the optional `--inspect` debug server
// (SPEC_FULL.md §3): a narrow websocket endpoint streaming PC/call-stack/
// variable snapshots to a connected viewer, useful for driving the host
// graphics/audio/file collaborators from a separate process during
// development. Never required for correctness. Grounded on the
// teacher's `internal/network/websocket_server.go` broadcast-to-clients
// shape (a mutex-protected client map, broadcast iterates and drops
// clients whose write fails) adapted from a generic network server into
// a single-purpose snapshot streamer.
package inspector

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Snapshot is one frame of interpreter state streamed to viewers.
type Snapshot struct {
	RunID     string                 `json:"run_id"`
	Line      int                    `json:"line"`
	Statement string                 `json:"statement"`
	CallStack []string               `json:"call_stack"`
	Vars      map[string]interface{} `json:"vars,omitempty"`
}

type client struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Server is the debug server the CLI's --inspect flag starts alongside
// a running program.
type Server struct {
	runID    uuid.UUID
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	http    *http.Server
}

func New(runID uuid.UUID) *Server {
	return &Server{
		runID:    runID,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  map[string]*client{},
	}
}

// Start binds addr and serves the single "/inspect" websocket endpoint
// in a background goroutine.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", s.handleUpgrade)
	s.http = &http.Server{Addr: addr, Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("inspector: serve: %v", err)
		}
	}()
	return nil
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.New().String()
	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[id] = c
	s.mu.Unlock()
	go s.drainReads(id, c)
}

// drainReads discards inbound frames, just watching for the close so a
// disconnected viewer is pruned from the broadcast set.
func (s *Server) drainReads(id string, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.mu.Lock()
			delete(s.clients, id)
			s.mu.Unlock()
			c.conn.Close()
			return
		}
	}
}

// Broadcast sends one Snapshot to every connected viewer, dropping any
// client whose write fails.
func (s *Server) Broadcast(snap Snapshot) {
	snap.RunID = s.runID.String()
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	s.mu.RLock()
	targets := make(map[string]*client, len(s.clients))
	for id, c := range s.clients {
		targets[id] = c
	}
	s.mu.RUnlock()

	for id, c := range targets {
		c.mu.Lock()
		failed := c.closed
		if !failed {
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				failed = true
			}
		}
		c.mu.Unlock()
		if failed {
			s.mu.Lock()
			delete(s.clients, id)
			s.mu.Unlock()
		}
	}
}

// Stop closes every client connection and the listener.
func (s *Server) Stop() error {
	s.mu.Lock()
	for _, c := range s.clients {
		c.mu.Lock()
		c.closed = true
		c.conn.Close()
		c.mu.Unlock()
	}
	s.clients = map[string]*client{}
	s.mu.Unlock()
	if s.http != nil {
		return s.http.Close()
	}
	return nil
}
