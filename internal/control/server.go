// ABOUTME: Remote control server for the adaptive music player
// ABOUTME: Accepts websocket controllers, applies their commands and broadcasts engine state
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/internal/version"
	"github.com/Resonate-Protocol/adaptive-go/pkg/adaptive"
	"github.com/Resonate-Protocol/adaptive-go/pkg/protocol"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Engine is the part of the engine a controller can drive
type Engine interface {
	PlayTrack(name string) error
	PlayTrackID(id int) error
	PlayTrackWithStringRandom(s string) error
	PlayTrackByGroupRandom(group string) error
	PlayTrackByGroupAndSubgroupRandom(group, subgroup string) error
	StopPlaying() error
	FinishTrack() error
	PlaySfxEx(name string, vol, pan float32) error
	PlaySfx2D(name string, x, y, width, height int) error
	StopSfx() error
	SetCondition(id, value int)
	AddTension(value int)
	SetTension(value int)
	SetVolume(vol int)
	SetLayerGain(name string, gain float32) error
	Pause()
	Resume()
	PauseToggle()
	Status() adaptive.Status
	PlayingInfo() string
	TrackList() []string
}

// Config holds server configuration
type Config struct {
	Port          int
	Name          string
	Logger        *log.Logger
	StateInterval time.Duration // default 1s
}

// Server serves the control protocol
type Server struct {
	config   Config
	engine   Engine
	logger   *log.Logger
	serverID string
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	clients   map[string]*client
	closed    bool // set once shutdown starts, no new sessions after it
	clientsMu sync.RWMutex

	wg sync.WaitGroup
}

type client struct {
	id       string
	name     string
	conn     *websocket.Conn
	sendChan chan protocol.Message
}

// New creates a control server for engine
func New(config Config, engine Engine) *Server {
	if config.StateInterval <= 0 {
		config.StateInterval = time.Second
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}

	s := &Server{
		config:   config,
		engine:   engine,
		logger:   config.Logger,
		serverID: uuid.New().String(),
		upgrader: websocket.Upgrader{
			// Controllers are local tools, not browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux:     http.NewServeMux(),
		clients: make(map[string]*client),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// ID returns the server's session id
func (s *Server) ID() string { return s.serverID }

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler { return s.mux }

// Run listens on the configured port until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts controllers on ln and broadcasts state until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.clientsMu.Lock()
	s.closed = false
	s.clientsMu.Unlock()

	httpServer := &http.Server{Handler: s.mux}
	s.logger.Info("Control server listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcastLoop(ctx)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
	case serverErr = <-errChan:
		s.logger.Error("HTTP server error", "err", serverErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", "err", err)
	}
	s.closeClients()
	s.wg.Wait()

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.closed = true
	for _, c := range s.clients {
		c.conn.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade error", "err", err)
		return
	}
	s.logger.Debug("New WebSocket connection", "remote", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection runs one controller session
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		s.logger.Warn("Error reading hello", "err", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	if msg.Type != protocol.TypeClientHello {
		writeError(conn, protocol.ErrorHelloRequired, "expected client/hello", msg.Type)
		return
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil || hello.ClientID == "" {
		writeError(conn, protocol.ErrorBadMessage, "client/hello needs a client_id", msg.Type)
		return
	}

	c := &client{
		id:       hello.ClientID,
		name:     hello.Name,
		conn:     conn,
		sendChan: make(chan protocol.Message, 32),
	}

	s.clientsMu.Lock()
	if s.closed {
		s.clientsMu.Unlock()
		s.logger.Debug("Server shutting down, dropping controller", "name", c.name)
		return
	}
	if _, exists := s.clients[c.id]; exists {
		s.clientsMu.Unlock()
		s.logger.Warn("Rejecting duplicate client", "id", c.id, "name", c.name)
		writeError(conn, protocol.ErrorDuplicateID, "client id already connected", msg.Type)
		return
	}
	s.clients[c.id] = c
	// Counted under the lock, before closeClients can mark the server closed
	s.wg.Add(1)
	s.clientsMu.Unlock()

	s.logger.Info("Controller connected", "name", c.name, "id", c.id)

	done := make(chan struct{})
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		s.clientsMu.Unlock()
		close(done)
		s.logger.Info("Controller disconnected", "name", c.name)
	}()

	s.send(c, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
		Product:  version.Product,
		Software: version.Version,
		Tracks:   s.engine.TrackList(),
	})
	s.send(c, protocol.TypeServerState, s.state())

	go func() {
		defer s.wg.Done()
		s.clientWriter(c, done)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket error", "err", err)
			}
			return
		}
		s.handleMessage(c, data)
	}
}

// clientWriter owns all writes to the connection
func (s *Server) clientWriter(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg := <-c.sendChan:
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("Error marshaling message", "err", err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("Error writing message", "err", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) handleMessage(c *client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(c, protocol.ErrorBadMessage, err.Error(), "")
		return
	}

	if err := s.apply(msg); err != nil {
		code := protocol.ErrorCommandFailed
		switch {
		case errors.Is(err, adaptive.ErrNotFound):
			code = protocol.ErrorNotFound
		case errors.Is(err, errUnknownType):
			code = protocol.ErrorUnknownType
		case errors.Is(err, errBadPayload):
			code = protocol.ErrorBadMessage
		}
		s.logger.Warn("Command failed", "client", c.name, "type", msg.Type, "err", err)
		s.sendError(c, code, err.Error(), msg.Type)
		return
	}
	s.logger.Debug("Command applied", "client", c.name, "type", msg.Type)
}

func (s *Server) send(c *client, msgType string, payload interface{}) bool {
	select {
	case c.sendChan <- protocol.Message{Type: msgType, Payload: payload}:
		return true
	default:
		s.logger.Warn("Client send buffer full", "client", c.name, "type", msgType)
		return false
	}
}

func (s *Server) sendError(c *client, code, message, msgType string) {
	s.send(c, protocol.TypeServerError, protocol.ServerError{Error: code, Message: message, Type: msgType})
}

// writeError answers a connection that never became a session
func writeError(conn *websocket.Conn, code, message, msgType string) {
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Error: code, Message: message, Type: msgType},
	})
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.StateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Broadcast()
		}
	}
}

// Broadcast sends the current engine state to every controller
func (s *Server) Broadcast() {
	state := s.state()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		s.send(c, protocol.TypeServerState, state)
	}
}

// Clients returns the number of connected controllers
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) state() protocol.ServerState {
	st := s.engine.Status()
	return protocol.ServerState{
		State:    st.State.String(),
		Track:    st.Track,
		Audio:    st.Clip,
		Tail:     st.Tail,
		Bars:     st.Bars,
		Sfx:      st.Sfx,
		Tension:  st.Tension,
		Volume:   st.Volume,
		Paused:   st.Paused,
		Clipping: st.Clipping,
		Info:     s.engine.PlayingInfo(),
	}
}
