package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
)

const (
	// Rate limiting: max client messages per second
	maxMessagesPerSecond = 10

	sendBufferSize = 256
)

// ClientMessage narrows which products a client hears about.
// An empty subscription means every product.
type ClientMessage struct {
	Type       string `json:"type"` // subscribe, unsubscribe
	ProductIDs []uint `json:"product_ids"`
}

// StockUpdate is pushed to clients whenever a product's stock changes.
type StockUpdate struct {
	Type      string    `json:"type"`
	ProductID uint      `json:"product_id"`
	Stock     int       `json:"stock"`
	At        time.Time `json:"at"`
}

type Client struct {
	Hub           *Hub
	Conn          *Conn
	Send          chan []byte
	products      map[uint]bool
	mu            sync.RWMutex
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan []byte, sendBufferSize),
		products:      make(map[uint]bool),
		LastResetTime: time.Now(),
	}
}

func (c *Client) wants(productID uint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products) == 0 || c.products[productID]
}

type broadcastMessage struct {
	productID uint
	data      []byte
}

// Hub fans stock updates out to every connected client.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage
	mu         sync.RWMutex
	now        func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *broadcastMessage, 1024),
		now:        time.Now,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Stock feed client registered", logger.Fields{
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Stock feed client unregistered", logger.Fields{
				"total_clients": total,
			})

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(message.productID) {
					continue
				}
				select {
				case client.Send <- message.data:
				default:
					// slow consumer
					delete(h.clients, client)
					close(client.Send)
					logger.Warn("Client send buffer full, disconnecting")
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastStock queues a stock update. Updates are dropped when the queue is full.
func (h *Hub) BroadcastStock(productID uint, stock int) {
	data, err := json.Marshal(StockUpdate{
		Type:      "stock",
		ProductID: productID,
		Stock:     stock,
		At:        h.now().UTC(),
	})
	if err != nil {
		logger.Error("Failed to marshal stock update", err)
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{productID: productID, data: data}:
	default:
		logger.Warn("Broadcast channel full, stock update dropped", logger.Fields{
			"product_id": productID,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", logger.Fields{
			"count": count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", logger.Fields{
			"error": err.Error(),
		})
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	switch msg.Type {
	case "subscribe":
		for _, id := range msg.ProductIDs {
			client.products[id] = true
		}
	case "unsubscribe":
		for _, id := range msg.ProductIDs {
			delete(client.products, id)
		}
	}
}
