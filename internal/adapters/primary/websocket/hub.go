package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

// Hub maintains the set of active Clients and forwards dashboard events to them.
type Hub struct {
	// clients maps session IDs to their active connections.
	// A session can have several connections (multiple tabs).
	clients map[uuid.UUID]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done is closed when Run returns
	done chan struct{}

	// mu protects the clients map
	mu sync.RWMutex

	logger *slog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Attach subscribes the hub to the events renderers care about. Delivery to
// sockets is asynchronous so a slow connection never holds up a bus dispatch.
func (h *Hub) Attach(bus ports.EventBus) (detach func()) {
	forward := func(_ context.Context, event domain.Event) {
		h.Broadcast(event)
	}
	unsubscribers := []func(){
		bus.Subscribe(domain.EventFilterChanged, forward),
		bus.Subscribe(domain.EventDatasetUpdated, forward),
	}
	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event domain.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
		)
	}
}

// Run starts the hub's event loop. It returns when ctx is cancelled, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Join registers a client. It reports false when the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters a client. It is a no-op once the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.SessionID] == nil {
		h.clients[client.SessionID] = make(map[*Client]bool)
	}
	h.clients[client.SessionID][client] = true

	h.logger.Info("client registered",
		"session_id", client.SessionID,
		"total_connections", len(h.clients[client.SessionID]),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionClients, ok := h.clients[client.SessionID]; ok {
		if _, exists := sessionClients[client]; exists {
			delete(sessionClients, client)
			if len(sessionClients) == 0 {
				delete(h.clients, client.SessionID)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered",
		"session_id", client.SessionID,
	)
}

func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, sessionClients := range h.clients {
		for client := range sessionClients {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"client_count", len(clients),
	)

	var stale []*Client
	for _, client := range clients {
		if !client.enqueue(event) {
			h.logger.Warn("client send buffer full, unregistering",
				"session_id", client.SessionID,
			)
			stale = append(stale, client)
		}
	}
	for _, client := range stale {
		h.unregisterClient(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID, sessionClients := range h.clients {
		for client := range sessionClients {
			client.CloseSend()
		}
		delete(h.clients, sessionID)
	}
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, sessionClients := range h.clients {
		count += len(sessionClients)
	}
	return count
}

// IsSessionConnected checks if a session has any active connections
func (h *Hub) IsSessionConnected(sessionID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[sessionID]
	return ok && len(clients) > 0
}
