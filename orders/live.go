package orders

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"kirana/middleware"
	"kirana/models"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Hub pushes order events to connected admin dashboards. Clients only
// listen; there is no inbound protocol beyond pings.
type Hub struct {
	clients    map[*liveClient]bool
	register   chan *liveClient
	unregister chan *liveClient
	broadcast  chan []byte
	mu         sync.Mutex
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*liveClient]bool),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		broadcast:  make(chan []byte, 16),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// liveEvent is the dashboard wire format.
type liveEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       int64     `json:"total"`
	Customer    string    `json:"customer"`
	At          time.Time `json:"at"`
}

// Notify fans an order event out to every connected dashboard.
func (h *Hub) Notify(event string, o *models.Order) {
	data, err := json.Marshal(liveEvent{
		Event:       event,
		OrderID:     o.OrderID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Total:       o.Total,
		Customer:    o.CustomerInfo.FullName,
		At:          time.Now(),
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Println("live feed backlog full, dropping event")
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// ServeLive upgrades an admin connection to the live order feed. Browsers
// cannot set Authorization headers on websocket handshakes, so the token
// rides in the query string.
func ServeLive(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		claims, err := middleware.ValidateJWT("Bearer " + r.URL.Query().Get("token"))
		if err != nil || claims.Role != models.RoleAdmin {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("live feed upgrade failed: %v", err)
			return
		}

		c := &liveClient{conn: conn, send: make(chan []byte, 16)}
		hub.register <- c

		go c.writePump()
		go c.readPump(hub)
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump discards inbound frames; it exists to process pongs and detect
// closed connections.
func (c *liveClient) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
