package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/pokerroom/holdem/internal/game"
	"github.com/pokerroom/holdem/internal/room"
)

// Server exposes the room registry over HTTP and WebSocket. The REST
// surface covers lobby and room mutations; the WebSocket carries live
// per-player views.
type Server struct {
	registry    *room.Registry
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
}

// NewServer creates a server bound to addr serving the given registry.
func NewServer(addr string, registry *room.Registry, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}
	return s
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /rooms", s.handleListRooms)
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{id}", s.handleGetRoom)
	mux.HandleFunc("POST /rooms/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /rooms/{id}/leave", s.handleLeave)
	mux.HandleFunc("POST /rooms/{id}/start", s.handleStart)
	mux.HandleFunc("POST /rooms/{id}/act", s.handleAct)
	mux.HandleFunc("POST /rooms/{id}/end", s.handleEnd)
	return mux
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down and closes all live connections.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.registry)

	s.mu.Lock()
	s.connections[client] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)

	client.Start()

	go func() {
		<-client.ctx.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "total", total)
	}()
}

// playerID extracts the caller identity. Authentication proper is out of
// scope; the identity header is trusted.
func playerID(r *http.Request) string {
	return r.Header.Get("X-Player-ID")
}

type createRoomRequest struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	SeatLimit int    `json:"seatLimit,omitempty"`
	MinBet    int    `json:"minBet,omitempty"`
	MaxBet    int    `json:"maxBet,omitempty"`
	BuyIn     int    `json:"buyIn,omitempty"`
}

type joinRequest struct {
	Username string `json:"username"`
}

type actRequest struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type roomCreatedResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "X-Player-ID header required")
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	coord, err := s.registry.Create(pid, req.Username, game.Config{
		Name:      req.Name,
		SeatLimit: req.SeatLimit,
		MinBet:    req.MinBet,
		MaxBet:    req.MaxBet,
		BuyIn:     req.BuyIn,
	})
	if err != nil {
		s.writeRuleError(w, err)
		return
	}

	s.logger.Info("Room created", "room", coord.ID, "creator", pid)
	writeJSON(w, http.StatusCreated, roomCreatedResponse{ID: coord.ID})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	coord, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeRuleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coord.Snapshot(playerID(r)))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "X-Player-ID header required")
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	s.roomMutation(w, r, func(coord *room.Coordinator) error {
		return coord.Join(pid, req.Username)
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "X-Player-ID header required")
		return
	}
	s.roomMutation(w, r, func(coord *room.Coordinator) error {
		return coord.Leave(pid)
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "X-Player-ID header required")
		return
	}
	s.roomMutation(w, r, func(coord *room.Coordinator) error {
		return coord.Start(pid)
	})
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "X-Player-ID header required")
		return
	}

	var req actRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	kind, err := game.ParseActionKind(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
		return
	}

	s.roomMutation(w, r, func(coord *room.Coordinator) error {
		return coord.Act(pid, kind, req.Amount)
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "X-Player-ID header required")
		return
	}
	s.roomMutation(w, r, func(coord *room.Coordinator) error {
		return coord.End(pid)
	})
}

// roomMutation looks up the room, applies fn, and answers with the
// caller's fresh view of the room on success.
func (s *Server) roomMutation(w http.ResponseWriter, r *http.Request, fn func(*room.Coordinator) error) {
	coord, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeRuleError(w, err)
		return
	}
	if err := fn(coord); err != nil {
		s.writeRuleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coord.Snapshot(playerID(r)))
}

// writeRuleError maps coordinator errors to HTTP statuses.
func (s *Server) writeRuleError(w http.ResponseWriter, err error) {
	if errors.Is(err, room.ErrClosed) {
		writeError(w, http.StatusNotFound, game.CodeRoomNotFound, "room is closed")
		return
	}
	re, ok := game.AsRuleError(err)
	if !ok {
		s.logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeError(w, statusForCode(re.Code), re.Code, re.Message)
}

func statusForCode(code string) int {
	switch code {
	case game.CodeRoomNotFound:
		return http.StatusNotFound
	case game.CodeNotCreator:
		return http.StatusForbidden
	case game.CodeRoomFull, game.CodeAlreadyJoined, game.CodeHandInProgress, game.CodeRoomDegraded:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorData{Code: code, Message: message})
}
