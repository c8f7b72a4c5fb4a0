package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"chatty/models"
	"chatty/presence"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// SocketOptions tunes the live channel
type SocketOptions struct {
	AllowedOrigin     string
	PurgeOnDisconnect bool
	Rate              float64
	Burst             int
	SendBuffer        int
}

// SocketHandler upgrades /ws requests and wires each connection to the
// presence directory and relay.
type SocketHandler struct {
	directory *presence.Directory
	relay     *presence.Relay
	opts      SocketOptions
	logger    *slog.Logger
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewSocketHandler(directory *presence.Directory, relay *presence.Relay, opts SocketOptions, logger *slog.Logger) *SocketHandler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	h := &SocketHandler{
		directory: directory,
		relay:     relay,
		opts:      opts,
		logger:    logger,
		clients:   make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *SocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.opts.AllowedOrigin == "" || h.opts.AllowedOrigin == "*" {
		return true
	}
	return strings.EqualFold(origin, h.opts.AllowedOrigin)
}

// Client is one live connection
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	logger  *slog.Logger

	// userID is only touched by the read loop
	userID string
}

// ID returns the connection id
func (c *Client) ID() string { return c.id }

// Push queues an event without blocking. It reports false when the buffer
// is full or the connection is gone.
func (c *Client) Push(event models.SocketEvent) bool {
	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("failed to encode socket event", slog.String("error", err.Error()))
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ServeHTTP handles WebSocket connections
func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	id := uuid.NewString()
	client := &Client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, h.opts.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(h.opts.Rate), h.opts.Burst),
		logger:  h.logger.With(slog.String("conn", id)),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	client.logger.Debug("client connected", slog.String("remote", r.RemoteAddr))

	go h.writePump(client)
	go h.readPump(client)
}

// Shutdown closes every open connection
func (h *SocketHandler) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		c.close()
	}
}

func (h *SocketHandler) readPump(c *Client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()

		if h.opts.PurgeOnDisconnect && c.userID != "" {
			h.directory.Remove(c.userID, c)
		}
		c.close()
		c.logger.Debug("client disconnected", slog.String("user", c.userID))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		if !c.limiter.Allow() {
			c.logger.Warn("socket frame dropped, rate limit exceeded", slog.String("user", c.userID))
			continue
		}

		var event models.SocketEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Debug("invalid socket frame", slog.String("error", err.Error()))
			continue
		}

		h.dispatch(c, event)
	}
}

func (h *SocketHandler) dispatch(c *Client, event models.SocketEvent) {
	switch event.Type {
	case models.EventAddUser:
		userID := parseUserID(event.Payload)
		if userID == "" {
			c.logger.Debug("add-user without a user id")
			return
		}
		if c.userID != "" && c.userID != userID {
			h.directory.Remove(c.userID, c)
		}
		c.userID = userID
		h.directory.Announce(userID, c)

	case models.EventSendMsg:
		var payload models.SendMsgPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.To == "" {
			c.logger.Debug("invalid send-msg payload")
			return
		}
		from := c.userID
		if from == "" {
			from = payload.From
		}
		h.relay.Relay(from, payload.To, payload.Message)

	default:
		c.logger.Debug("unknown socket event", slog.String("type", event.Type))
	}
}

// parseUserID accepts "id" or {"userId": "id"}
func parseUserID(payload json.RawMessage) string {
	var id string
	if err := json.Unmarshal(payload, &id); err == nil {
		return strings.TrimSpace(id)
	}

	var obj struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(payload, &obj); err == nil {
		return strings.TrimSpace(obj.UserID)
	}
	return ""
}

func (h *SocketHandler) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
