// Package websocket pushes reading events to connected members.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	queueSize      = 256
)

// Event types sent to clients.
const (
	EventPageUnlocked = "page_unlocked"
	EventReminders    = "reminders"
	EventBookAdded    = "book_added"
)

// Event is the envelope of every message pushed to a client.
type Event struct {
	Type    string      `json:"type"`
	GroupID int64       `json:"group_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type userMessage struct {
	userID int64
	data   []byte
}

// Hub tracks connected clients and fans messages out to them. All map
// mutation happens on the Run goroutine.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan userMessage
	register   chan *Client
	unregister chan *Client
}

// Client is one websocket connection of one user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, queueSize),
		direct:     make(chan userMessage, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes registrations and messages until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message, func(*Client) bool { return true })

		case msg := <-h.direct:
			h.deliver(msg.data, func(c *Client) bool { return c.userID == msg.userID })
		}
	}
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(message []byte, match func(*Client) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// BroadcastJSON sends v to every connected client.
func (h *Hub) BroadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshalling websocket message: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Println("Websocket broadcast queue full, dropping message")
	}
}

// SendJSON sends v to every connection of userID.
func (h *Hub) SendJSON(userID int64, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshalling websocket message: %v", err)
		return
	}
	select {
	case h.direct <- userMessage{userID: userID, data: data}:
	default:
		log.Printf("Websocket queue full, dropping message for user %d", userID)
	}
}

// ConnectedUsers returns the distinct users with at least one connection.
func (h *Hub) ConnectedUsers() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[int64]bool)
	var users []int64
	for c := range h.clients {
		if !seen[c.userID] {
			seen[c.userID] = true
			users = append(users, c.userID)
		}
	}
	return users
}

// Count is the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWs upgrades the request and attaches the connection to userID.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	client := &Client{hub: h, conn: conn, userID: userID, send: make(chan []byte, queueSize)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the connection closing; clients never send
// anything meaningful.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Websocket read error: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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
