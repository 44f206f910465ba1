package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToRequest(requestID string, msgType string, payload interface{})
	DisconnectRequest(requestID string)
}
