package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	mw "github.com/lorrc/atendimento-dashboard/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/atendimento-dashboard/internal/adapters/primary/websocket"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

// WebSocketConfig holds configuration for the WebSocket handler
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	IsDevelopment   bool
	Client          wsAdapter.ClientConfig
}

// WebSocketHandler handles WebSocket connection upgrades
type WebSocketHandler struct {
	hub       *wsAdapter.Hub
	tm        mw.TokenValidator
	dashboard ports.DashboardService
	limiter   wsAdapter.Limiter
	cfg       WebSocketConfig
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. limiter throttles
// inbound commands per session.
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm mw.TokenValidator,
	dashboard ports.DashboardService,
	limiter wsAdapter.Limiter,
	cfg WebSocketConfig,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:       hub,
		tm:        tm,
		dashboard: dashboard,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     handler.checkOrigin,
	}

	return handler
}

// checkOrigin accepts same-origin and non-browser clients, and browser
// origins listed in AllowedOrigins ("*.example.com" matches subdomains).
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// In development mode, allow all origins (but log a warning)
	if h.cfg.IsDevelopment {
		if origin != "" {
			h.logger.Warn("allowing websocket connection in development mode",
				"origin", origin,
				"remote_addr", r.RemoteAddr,
			)
		}
		return true
	}

	if origin == "" {
		return true
	}

	parsedOrigin, err := url.Parse(origin)
	if err != nil {
		h.logger.Warn("failed to parse websocket origin",
			"origin", origin,
			"error", err,
		)
		return false
	}
	originHost := parsedOrigin.Host

	for _, allowed := range h.cfg.AllowedOrigins {
		if strings.HasPrefix(allowed, "*.") {
			suffix := allowed[1:]
			if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
				return true
			}
		} else if originHost == allowed {
			return true
		}
	}

	h.logger.Warn("websocket connection rejected due to origin",
		"origin", origin,
		"remote_addr", r.RemoteAddr,
		"allowed_origins", h.cfg.AllowedOrigins,
	)
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. Authenticate the connection via query parameter
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.WarnContext(ctx, "websocket connection rejected: missing token",
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tm.ValidateToken(tokenString)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket connection rejected: invalid token",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	// 2. Upgrade the connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection",
			"session_id", claims.SessionID,
			"error", err,
		)
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established",
		"session_id", claims.SessionID,
		"remote_addr", r.RemoteAddr,
	)

	// 3. Create the client, send it the current state and register it
	client := wsAdapter.NewClient(h.hub, conn, claims.SessionID, h.dashboard, h.limiter, h.cfg.Client, h.logger)
	client.Prime(h.dashboard.Current(ctx))
	if !h.hub.Join(client) {
		_ = conn.Close()
		return
	}

	// 4. Start the I/O pumps in new goroutines
	go client.WritePump()
	go client.ReadPump()
}
