package ws

import (
	"encoding/json"
	"sync"

	"donorlink/internal/logger"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgRequestAccepted        MessageType = "request_accepted"
	MsgQualificationCompleted MessageType = "qualification_completed"
	MsgSubscribed             MessageType = "subscribed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans request events out to every connection watching that request
type Hub struct {
	subs map[string]map[*Connection]struct{} // requestID -> connections

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	stopOnce   sync.Once

	log logger.Logger
}

// Connection represents a WebSocket subscriber
type Connection struct {
	RequestID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	RequestID  string
	Message    *Message
	Disconnect bool
}

// NewHub creates a new WebSocket hub
func NewHub(log logger.Logger) *Hub {
	h := &Hub{
		subs:       make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, conns := range h.subs {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.subs, id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.subs[conn.RequestID] == nil {
				h.subs[conn.RequestID] = make(map[*Connection]struct{})
			}
			h.subs[conn.RequestID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("Subscriber connected", map[string]interface{}{"request_id": conn.RequestID})

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.subs[conn.RequestID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.subs, conn.RequestID)
					}
					h.log.Debug("Subscriber disconnected", map[string]interface{}{"request_id": conn.RequestID})
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			if msg.Disconnect {
				h.mu.Lock()
				for conn := range h.subs[msg.RequestID] {
					close(conn.Send)
				}
				delete(h.subs, msg.RequestID)
				h.mu.Unlock()
				continue
			}

			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("Failed to encode message", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.mu.RLock()
			for conn := range h.subs[msg.RequestID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Stop closes every connection and ends the hub loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// SubscriberCount reports how many connections watch requestID
func (h *Hub) SubscriberCount(requestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[requestID])
}

// BroadcastToRequest sends a message to everyone watching a request (implements service.Broadcaster)
func (h *Hub) BroadcastToRequest(requestID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("Failed to encode payload", map[string]interface{}{"error": err.Error(), "type": msgType})
		return
	}
	h.send(&BroadcastMessage{
		RequestID: requestID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	})
}

// DisconnectRequest drops every subscriber of a request (implements service.Broadcaster)
func (h *Hub) DisconnectRequest(requestID string) {
	h.send(&BroadcastMessage{RequestID: requestID, Disconnect: true})
}

func (h *Hub) send(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
