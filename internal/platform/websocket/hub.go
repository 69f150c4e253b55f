// Package websocket pushes form session updates to connected clients. Each
// client follows exactly one topic, normally one draft session.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Event is one message delivered to the followers of Topic.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an event for topic.
func NewEvent(eventType, topic string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return Event{Type: eventType, Topic: topic, Timestamp: time.Now().UTC(), Data: raw}, nil
}

type Client struct {
	ID    string
	Topic string
	Send  chan []byte
}

// Hub tracks connected clients by topic.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger.With().Str("component", "session_feed").Logger(),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.Topic] == nil {
		h.clients[c.Topic] = make(map[*Client]struct{})
	}
	h.clients[c.Topic][c] = struct{}{}
}

// Unregister removes the client and closes its Send channel. Calling it twice
// is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subscribers, ok := h.clients[c.Topic]
	if !ok {
		return
	}
	if _, ok := subscribers[c]; !ok {
		return
	}
	delete(subscribers, c)
	if len(subscribers) == 0 {
		delete(h.clients, c.Topic)
	}
	close(c.Send)
}

// Publish delivers the event to the topic's clients. A client whose buffer is
// full misses the event.
func (h *Hub) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[event.Topic] {
		select {
		case c.Send <- data:
		default:
			h.logger.Warn().Str("client_id", c.ID).Str("topic", event.Topic).Msg("client buffer full, event dropped")
		}
	}
	return nil
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Connector upgrades HTTP requests and attaches them to a hub topic.
type Connector struct {
	hub      *Hub
	upgrader gorillawebsocket.Upgrader
}

// NewConnector accepts upgrades from allowedOrigins. "*" allows any origin and
// requests without an Origin header are always accepted.
func NewConnector(hub *Hub, allowedOrigins []string) *Connector {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Connector{
		hub: hub,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Connect upgrades the request and streams topic events until the client
// goes away. Inbound messages are read only to detect the close.
func (cn *Connector) Connect(c echo.Context, topic string) error {
	ws, err := cn.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	client := &Client{ID: uuid.NewString(), Topic: topic, Send: make(chan []byte, sendBuffer)}
	cn.hub.Register(client)
	cn.hub.logger.Debug().Str("client_id", client.ID).Str("topic", topic).Msg("client connected")

	go cn.writePump(client, ws)
	go cn.readPump(client, ws)
	return nil
}

func (cn *Connector) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		cn.hub.Unregister(client)
		ws.Close()
	}()
	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (cn *Connector) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()
	for {
		select {
		case msg, ok := <-client.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
