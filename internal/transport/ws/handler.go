package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"donorlink/internal/logger"
	"donorlink/internal/model"
	"donorlink/internal/qualification"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// RequestLookup confirms a request exists before subscribing to it
type RequestLookup interface {
	GetRequest(ctx context.Context, id string) (*model.BloodRequest, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	requests RequestLookup
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. allowedOrigins is a
// comma-separated list; empty or "*" accepts any origin.
func NewHandler(hub *Hub, requests RequestLookup, log logger.Logger, allowedOrigins string) *Handler {
	return &Handler{
		hub:      hub,
		requests: requests,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowedOrigins string) func(*http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	if len(allowed) == 0 || allowed["*"] {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin.
		return origin == "" || allowed[origin]
	}
}

// RequestWS handles GET /v1/ws/requests/{requestId}
func (h *Handler) RequestWS(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]

	req, err := h.requests.GetRequest(r.Context(), requestID)
	if errors.Is(err, qualification.ErrRequestNotFound) {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load request", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade error", map[string]interface{}{"error": err.Error()})
		return
	}

	hello, _ := json.Marshal(map[string]string{"requestId": requestID, "status": string(req.Status)})
	wsConn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := wsConn.WriteJSON(&Message{Type: MsgSubscribed, Payload: hello}); err != nil {
		wsConn.Close()
		return
	}

	conn := &Connection{
		RequestID: requestID,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}

	h.hub.Register(conn)

	h.log.Info("Subscriber watching request", map[string]interface{}{"request_id": requestID})

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("WebSocket error", map[string]interface{}{"error": err.Error()})
			}
			break
		}
		// Subscribers only listen; inbound frames are ignored.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
