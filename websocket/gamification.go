package websocket

import (
	"context"
	"sync"
	"time"

	"wolontariat/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single write to a client
	writeWait = 10 * time.Second
	// sendBuffer is how many events a client may fall behind before it is dropped
	sendBuffer = 64
)

// GamificationClient is a connection subscribed to gamification updates
type GamificationClient struct {
	Conn    *websocket.Conn
	UserID  string
	writeMu sync.Mutex
	send    chan models.GamificationEvent
}

func NewGamificationClient(conn *websocket.Conn, userID string) *GamificationClient {
	return &GamificationClient{
		Conn:   conn,
		UserID: userID,
		send:   make(chan models.GamificationEvent, sendBuffer),
	}
}

// SafeWriteJSON serialises writes; gorilla connections allow one writer at a time
func (gc *GamificationClient) SafeWriteJSON(v interface{}) error {
	gc.writeMu.Lock()
	defer gc.writeMu.Unlock()
	if err := gc.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return gc.Conn.WriteJSON(v)
}

// receives reports whether event is meant for this client. Enrollment and
// rating events concern one volunteer only; badge unlocks are public.
func (gc *GamificationClient) receives(event models.GamificationEvent) bool {
	switch event.Type {
	case models.EventEnrollmentChanged, models.EventRatingAdded:
		return event.UserID == gc.UserID
	}
	return true
}

// Hub broadcasts gamification events to connected clients
type Hub struct {
	mu      sync.RWMutex
	clients map[*GamificationClient]bool
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*GamificationClient]bool),
		log:     log.Named("hub"),
	}
}

// Register adds client and starts its writer
func (h *Hub) Register(client *GamificationClient) {
	if client.send == nil {
		client.send = make(chan models.GamificationEvent, sendBuffer)
	}
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	go h.writeLoop(client)
	h.log.Debug("gamification client registered", zap.String("userId", client.UserID), zap.Int("clients", count))
}

func (h *Hub) Unregister(client *GamificationClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	client.Conn.Close()
	h.log.Debug("gamification client unregistered", zap.String("userId", client.UserID), zap.Int("clients", count))
}

func (h *Hub) writeLoop(client *GamificationClient) {
	for event := range client.send {
		if err := client.SafeWriteJSON(event); err != nil {
			h.log.Debug("dropping gamification client", zap.String("userId", client.UserID), zap.Error(err))
			h.Unregister(client)
			// Drain so Unregister's close ends the loop
			for range client.send {
			}
			return
		}
	}
}

// Publish queues event for every interested client without waiting for the
// network. Clients whose queue is full are dropped.
func (h *Hub) Publish(_ context.Context, event models.GamificationEvent) error {
	var slow []*GamificationClient
	delivered := 0

	h.mu.RLock()
	for client := range h.clients {
		if !client.receives(event) {
			continue
		}
		select {
		case client.send <- event:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.log.Warn("gamification client too slow, dropping", zap.String("userId", client.UserID))
		h.Unregister(client)
	}
	h.log.Debug("broadcasted gamification event", zap.String("type", event.Type), zap.Int("clients", delivered))
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
