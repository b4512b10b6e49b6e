package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans assessment events out to the clinicians watching them
type Hub struct {
	// assessmentID -> subscribers
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	stopOnce   sync.Once
	stopped    chan struct{}

	logger *zap.Logger
}

// Connection is one subscriber socket
type Connection struct {
	AssessmentID string
	ClinicianID  string
	Send         chan []byte
}

// NewConnection creates a subscriber with a buffered send queue
func NewConnection(assessmentID, clinicianID string) *Connection {
	return &Connection{
		AssessmentID: assessmentID,
		ClinicianID:  clinicianID,
		Send:         make(chan []byte, 256),
	}
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	AssessmentID string
	Message      *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.AssessmentID] == nil {
				h.conns[conn.AssessmentID] = make(map[*Connection]struct{})
			}
			h.conns[conn.AssessmentID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("subscriber connected",
				zap.String("assessment", conn.AssessmentID),
				zap.String("clinician", conn.ClinicianID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.conns[conn.AssessmentID]; ok {
				if _, ok := subs[conn]; ok {
					delete(subs, conn)
					close(conn.Send)
					if len(subs) == 0 {
						delete(h.conns, conn.AssessmentID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("subscriber disconnected", zap.String("assessment", conn.AssessmentID))

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Error("encode ws message", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.AssessmentID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for id, subs := range h.conns {
				for conn := range subs {
					close(conn.Send)
				}
				delete(h.conns, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Subscribers counts the live connections for an assessment
func (h *Hub) Subscribers(assessmentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[assessmentID])
}

// BroadcastToAssessment sends an event to every subscriber of the assessment (implements service.Broadcaster)
func (h *Hub) BroadcastToAssessment(assessmentID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode ws payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		AssessmentID: assessmentID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	case <-h.done:
	}
}

// Stop closes every subscriber and ends the hub loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}
