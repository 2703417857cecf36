// ABOUTME: WebSocket client for the control protocol
// ABOUTME: Handles connection, handshake, commands and routing of player messages
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string // generated when empty
	Name       string
	Logger     *log.Logger
}

// Client is a remote controller connected to a player
type Client struct {
	config Config
	logger *log.Logger
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Hello is the player's answer to the handshake
	Hello ServerHello

	// Message channels
	States chan ServerState
	Errors chan ServerError

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		logger: logger,
		States: make(chan ServerState, 10),
		Errors: make(chan ServerError, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	c.logger.Debug("Connecting", "url", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return nil
}

func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  Version,
	}
	if err := c.Send(TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch msg.Type {
	case TypeServerHello:
	case TypeServerError:
		var e ServerError
		DecodePayload(msg.Payload, &e)
		return fmt.Errorf("rejected: %s: %s", e.Error, e.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	if err := DecodePayload(msg.Payload, &c.Hello); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	c.logger.Info("Connected", "player", c.Hello.Name, "tracks", len(c.Hello.Tracks))
	return nil
}

// Send writes one message to the player
func (c *Client) Send(msgType string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(Message{Type: msgType, Payload: payload})
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				c.logger.Warn("Read error", "err", err)
			}
			return
		}
		c.handleJSONMessage(data)
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("Failed to parse message", "err", err)
		return
	}

	switch msg.Type {
	case TypeServerState:
		var state ServerState
		if err := DecodePayload(msg.Payload, &state); err != nil {
			c.logger.Warn("Failed to parse server/state", "err", err)
			return
		}
		select {
		case c.States <- state:
		default:
			// Only the latest state matters
			select {
			case <-c.States:
			default:
			}
			c.States <- state
		}

	case TypeServerError:
		var e ServerError
		if err := DecodePayload(msg.Payload, &e); err != nil {
			c.logger.Warn("Failed to parse server/error", "err", err)
			return
		}
		select {
		case c.Errors <- e:
		case <-time.After(100 * time.Millisecond):
			c.logger.Warn("Error channel full, dropping message", "error", e.Error)
		}

	default:
		c.logger.Debug("Unknown message type", "type", msg.Type)
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		c.logger.Debug("Connection closed")
	}
}

// Done is closed once the connection has ended
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
