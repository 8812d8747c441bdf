package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Message types exchanged with the browser.
const (
	MessageToggleFilter = "TOGGLE_FILTER"
	MessageSetPeriod    = "SET_PERIOD"
	MessageClearFilters = "CLEAR_FILTERS"
	MessageClearPeriod  = "CLEAR_PERIOD"
	MessagePing         = "PING"

	MessagePong  domain.EventType = "PONG"
	MessageError domain.EventType = "ERROR"
)

// Limiter throttles commands per key.
type Limiter interface {
	Allow(key string) bool
}

// ClientConfig holds the timing of one connection.
type ClientConfig struct {
	PingInterval time.Duration
	PongWait     time.Duration
	// Location decides what "today" is when validating periods.
	Location *time.Location
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan domain.Event

	// SessionID identifies the operator session that opened the connection.
	SessionID uuid.UUID

	dashboard ports.DashboardService
	limiter   Limiter
	clock     func() time.Time
	cfg       ClientConfig

	// sendMu guards Send against a send racing CloseSend. closed is set once
	// Send has been closed and is only read or written under sendMu.
	sendMu sync.Mutex
	closed bool

	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(
	hub *Hub,
	conn *websocket.Conn,
	sessionID uuid.UUID,
	dashboard ports.DashboardService,
	limiter Limiter,
	cfg ClientConfig,
	logger *slog.Logger,
) *Client {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongWait {
		cfg.PingInterval = (cfg.PongWait * 9) / 10
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Client{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan domain.Event, sendBufferSize),
		SessionID: sessionID,
		dashboard: dashboard,
		limiter:   limiter,
		clock:     time.Now,
		cfg:       cfg,
		logger:    logger.With("session_id", sessionID.String()),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// enqueue queues an event without blocking. It reports false when the buffer
// is full or the hub has already closed Send; the read pump keeps running
// until the write pump drops the connection, so replies can arrive late.
func (c *Client) enqueue(event domain.Event) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

// Prime queues the current dashboard state so a fresh connection renders
// without waiting for the next change.
func (c *Client) Prime(view ports.DashboardView) {
	c.enqueue(domain.Event{Type: domain.EventFilterChanged, Payload: view.Filters})
	c.enqueue(domain.Event{Type: domain.EventDatasetUpdated, Payload: view.Update})
}

// ReadPump pumps commands from the websocket connection to the dashboard.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(context.Background(), message)
	}
}

// WritePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// TogglePayload is the payload of TOGGLE_FILTER.
type TogglePayload struct {
	Facet string `json:"facet"`
	Value string `json:"value"`
}

// ErrorPayload is sent back when a command is rejected.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) handleIncomingMessage(ctx context.Context, message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		c.sendError("BAD_REQUEST", "Invalid message")
		return
	}

	if msg.Type != MessagePing && c.limiter != nil && !c.limiter.Allow(c.SessionID.String()) {
		c.sendError("RATE_LIMITED", "Too many commands. Please slow down.")
		return
	}

	switch msg.Type {
	case MessageToggleFilter:
		c.handleToggle(ctx, msg.Payload)

	case MessageSetPeriod:
		c.handleSetPeriod(ctx, msg.Payload)

	case MessageClearFilters:
		c.dashboard.Clear(ctx)

	case MessageClearPeriod:
		c.dashboard.ResetPeriod(ctx)

	case MessagePing:
		c.sendPong()

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) handleToggle(ctx context.Context, payload json.RawMessage) {
	var p TogglePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal toggle payload", "error", err)
		c.sendError("BAD_REQUEST", "Invalid toggle payload")
		return
	}

	facet, err := domain.ParseFacet(p.Facet)
	if err != nil {
		c.sendError("UNKNOWN_FACET", err.Error())
		return
	}

	c.dashboard.Toggle(ctx, facet, p.Value)
}

func (c *Client) handleSetPeriod(ctx context.Context, payload json.RawMessage) {
	var p domain.Period
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal period payload", "error", err)
		c.sendError("BAD_REQUEST", "Invalid period payload")
		return
	}

	if err := domain.ValidatePeriod(p, c.now()); err != nil {
		code := "INVALID_PERIOD"
		if errors.Is(err, apperrors.ErrFuturePeriod) {
			code = "FUTURE_PERIOD"
		}
		c.sendError(code, err.Error())
		return
	}

	c.dashboard.SetPeriod(ctx, p.Start, p.End)
}

func (c *Client) now() time.Time {
	return c.clock().In(c.cfg.Location)
}

func (c *Client) sendPong() {
	// Full or closed, skip pong response
	c.enqueue(domain.Event{Type: MessagePong})
}

func (c *Client) sendError(code, message string) {
	c.enqueue(domain.Event{Type: MessageError, Payload: ErrorPayload{Code: code, Message: message}})
}
