package notifications

import (
	"context"

	"pms/internal/platform/pubsub"
)

const clientBuffer = 32

// Client is one WebSocket connection. Only the hub closes Send.
type Client struct {
	UserID string
	send   chan []byte
}

func NewClient(userID string) *Client {
	return &Client{UserID: userID, send: make(chan []byte, clientBuffer)}
}

func (c *Client) Send() <-chan []byte {
	return c.send
}

type HubStats struct {
	TotalConnections int            `json:"total_connections"`
	ConnectedUsers   int            `json:"connected_users"`
	Users            map[string]int `json:"users"`
}

type userMessage struct {
	userID  string
	payload []byte
}

type clientMessage struct {
	client  *Client
	payload []byte
}

// Hub owns the connection registry. All access goes through its channels and
// is serialized in Run.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	toUser     chan userMessage
	toClient   chan clientMessage
	stats      chan chan HubStats
	done       chan struct{}

	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		toUser:     make(chan userMessage, 64),
		toClient:   make(chan clientMessage, 64),
		stats:      make(chan chan HubStats),
		done:       make(chan struct{}),
		clients:    map[string]map[*Client]struct{}{},
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[string]map[*Client]struct{}{}
			return
		case c := <-h.register:
			set, ok := h.clients[c.UserID]
			if !ok {
				set = map[*Client]struct{}{}
				h.clients[c.UserID] = set
			}
			set[c] = struct{}{}
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.toUser:
			for c := range h.clients[msg.userID] {
				h.push(c, msg.payload)
			}
		case msg := <-h.toClient:
			if _, ok := h.clients[msg.client.UserID][msg.client]; ok {
				h.push(msg.client, msg.payload)
			}
		case reply := <-h.stats:
			stats := HubStats{Users: map[string]int{}}
			for userID, set := range h.clients {
				stats.Users[userID] = len(set)
				stats.TotalConnections += len(set)
			}
			stats.ConnectedUsers = len(stats.Users)
			reply <- stats
		}
	}
}

func (h *Hub) push(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Register returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) SendToUser(userID string, payload []byte) {
	select {
	case h.toUser <- userMessage{userID: userID, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) SendToClient(c *Client, payload []byte) {
	select {
	case h.toClient <- clientMessage{client: c, payload: payload}:
	case <-h.done:
	}
}

// Deliver routes a broker message to the recipient's connections.
func (h *Hub) Deliver(msg pubsub.Message) {
	h.SendToUser(msg.UserID, msg.Payload)
}

func (h *Hub) Stats(ctx context.Context) HubStats {
	reply := make(chan HubStats, 1)
	select {
	case h.stats <- reply:
	case <-h.done:
		return HubStats{Users: map[string]int{}}
	case <-ctx.Done():
		return HubStats{Users: map[string]int{}}
	}
	select {
	case stats := <-reply:
		return stats
	case <-ctx.Done():
		return HubStats{Users: map[string]int{}}
	}
}
