package service

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Davshiv20/PingPollz/internal/model"
)

// Client is one live WebSocket connection. ParticipantID and Name stay empty
// until the connection joins and are then set through Hub.Bind; presenters
// connect with Role set and never join.
type Client struct {
	ConnID        string
	ParticipantID string
	Name          string
	Role          string
	Send          chan []byte
}

// Hub fans state-change events out to every connected party. Delivery is
// fire-and-forget over per-client buffered channels: a client whose buffer is
// full is dropped, never allowed to stall the mutation that triggered the
// event. Events pushed from one logical action share the broadcast queue and
// each client's FIFO Send channel, so their causal order is preserved.
type Hub struct {
	clients   map[*Client]bool
	broadcast chan []byte
	mu        sync.RWMutex
	done      chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
	}
}

// Run pumps queued broadcasts out to the clients until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.done)
}

// Register makes the connection visible to broadcasts and replies. Synchronous
// so that a reply queued right after registration is never refused.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[Hub] connection %s registered (total: %d)", client.ConnID, total)
}

// Unregister removes the connection and closes its Send channel, ending the
// writer goroutine. Safe to call for a connection the broadcast loop already
// dropped.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[Hub] connection %s unregistered (total: %d)", client.ConnID, total)
}

// Broadcast delivers the event to every connection alive at send time.
func (h *Hub) Broadcast(event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// Bind attaches a joined participant identity to the connection. Runs under
// the hub lock so unicast lookups never observe a half-written identity.
func (h *Hub) Bind(client *Client, participantID, name string) {
	h.mu.Lock()
	client.ParticipantID = participantID
	client.Name = name
	h.mu.Unlock()
}

// SendToClient queues an event on one connection's buffer. Returns false when
// the connection is no longer registered (dropped or unregistered, its Send
// channel possibly closed) or its buffer is full. The hub owns the channel
// lifecycle; callers must not push into Send directly.
func (h *Hub) SendToClient(client *Client, event *model.WSEvent) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		return false
	}
}

// SendToParticipant unicasts to the one connection bound to the participant.
// Returns false when the participant has no live connection; the event is
// simply dropped, matching disconnect-mid-operation semantics.
func (h *Hub) SendToParticipant(participantID string, event *model.WSEvent) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.ParticipantID == participantID {
			select {
			case client.Send <- data:
				return true
			default:
				return false
			}
		}
	}
	return false
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
