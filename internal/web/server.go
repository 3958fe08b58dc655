// Package web exposes the run registry over HTTP and streams live run
// progress over websockets.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"imgtrack/internal/store"
)

// ProgressEvent is the message broadcast to connected clients while an
// analysis run advances. Done is 0 when only the run status is known.
type ProgressEvent struct {
	RunID     string    `json:"run_id"`
	Analysis  string    `json:"analysis"`
	Status    string    `json:"status"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// Server wraps the HTTP surface over the run registry.
type Server struct {
	port     int
	store    *store.Store
	log      *slog.Logger
	upgrader websocket.Upgrader
	hub      *hub
	server   *http.Server
}

type hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	log        *slog.Logger
}

// NewServer creates a server over the given run registry.
func NewServer(port int, st *store.Store, log *slog.Logger) *Server {
	return &Server{
		port:  port,
		store: st,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hub: &hub{
			clients:    make(map[*websocket.Conn]bool),
			broadcast:  make(chan []byte, 16),
			register:   make(chan *websocket.Conn),
			unregister: make(chan *websocket.Conn),
			log:        log,
		},
	}
}

// Publish broadcasts a progress event to all connected websocket
// clients. Safe to call from any goroutine; drops the event when the
// broadcast buffer is full rather than blocking the analysis loop.
func (s *Server) Publish(ev ProgressEvent) {
	ev.Timestamp = time.Now()
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case s.hub.broadcast <- payload:
	default:
	}
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/runs", s.handleRuns).Methods("GET")
	r.HandleFunc("/api/runs/{id}", s.handleRun).Methods("GET")
	r.HandleFunc("/api/runs/{id}/summary", s.handleRunSummary).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	return r
}

// broadcastRuns polls the run registry and publishes status changes of
// the most recent run to websocket clients.
func (s *Server) broadcastRuns(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var lastID, lastStatus string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recs, err := s.store.RecentRuns(1)
			if err != nil || len(recs) == 0 {
				continue
			}
			rec := recs[0]
			if rec.ID == lastID && rec.Status == lastStatus {
				continue
			}
			lastID, lastStatus = rec.ID, rec.Status
			s.Publish(ProgressEvent{
				RunID:    rec.ID,
				Analysis: rec.Analysis,
				Status:   rec.Status,
				Total:    rec.Frames,
			})
		}
	}
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.run(ctx)
	go s.broadcastRuns(ctx)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info("server starting", "port", s.port)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.RecentRuns(100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := s.store.Run(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	meta, err := s.store.RunSummary(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meta)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.hub.register <- conn

	go func() {
		defer func() {
			s.hub.unregister <- conn
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug("websocket client connected", "total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				h.log.Debug("websocket client disconnected", "total", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					delete(h.clients, client)
					client.Close()
				}
			}
		}
	}
}
