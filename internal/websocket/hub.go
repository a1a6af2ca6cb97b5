package websocket

import (
	"encoding/json"
	"sort"
	"sync"

	"enculture-be/internal/dto"
	"enculture-be/internal/pkg/logger"
	"enculture-be/pkg/isotime"
)

const welcomeMessage = "Connected to Enculture notifications"

// Connection is one open real-time channel owned by a single user.
type Connection interface {
	// Send queues data for delivery without blocking. It reports false when
	// the connection is closed or cannot accept more data.
	Send(data []byte) bool
	// Close shuts the outbound side. It must be safe to call more than once.
	Close()
}

// Fanout forwards locally sent messages to other instances.
type Fanout interface {
	Publish(targetUserID string, data []byte)
}

// broadcastTarget addresses every user on every instance.
const broadcastTarget = "*"

// Hub tracks live connections per user. A user present in the map always has
// at least one connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string][]Connection

	fanout Fanout
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients: make(map[string][]Connection),
		logger:  log,
	}
}

// SetFanout enables cross-instance delivery. Call before serving traffic.
func (h *Hub) SetFanout(f Fanout) {
	h.mu.Lock()
	h.fanout = f
	h.mu.Unlock()
}

// Register adds conn to the user's set and greets it.
func (h *Hub) Register(conn Connection, userID string) {
	h.mu.Lock()
	h.clients[userID] = append(h.clients[userID], conn)
	h.mu.Unlock()
	h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": userID})

	data, err := json.Marshal(dto.ConnectionEstablishedMessage{
		Type:      dto.MessageTypeConnectionEstablished,
		Message:   welcomeMessage,
		Timestamp: isotime.Now(),
	})
	if err != nil {
		return
	}
	if !conn.Send(data) {
		h.logger.Warn("Hub", "Failed to greet new connection", map[string]interface{}{"user_id": userID})
		h.Unregister(conn, userID)
	}
}

// Unregister removes conn. Unknown connections are ignored.
func (h *Hub) Unregister(conn Connection, userID string) {
	h.mu.Lock()
	removed := h.removeLocked(userID, conn)
	_, stillPresent := h.clients[userID]
	h.mu.Unlock()

	if !removed {
		return
	}
	conn.Close()
	if !stillPresent {
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": userID})
	}
}

func (h *Hub) removeLocked(userID string, conn Connection) bool {
	conns, ok := h.clients[userID]
	if !ok {
		return false
	}
	for i, c := range conns {
		if c != conn {
			continue
		}
		rest := make([]Connection, 0, len(conns)-1)
		rest = append(rest, conns[:i]...)
		rest = append(rest, conns[i+1:]...)
		if len(rest) == 0 {
			delete(h.clients, userID)
		} else {
			h.clients[userID] = rest
		}
		return true
	}
	return false
}

// SendToUser delivers message to every local connection of userID and
// reports whether the user still has one afterwards.
func (h *Hub) SendToUser(userID string, message any) bool {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode message", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return false
	}

	h.publish(userID, data)

	_, ok := h.deliverLocal(userID, data)
	if !ok {
		h.logger.Warn("Hub", "No active connection for user", map[string]interface{}{"user_id": userID})
	}
	return ok
}

// Broadcast delivers message to every local connection and returns the
// number of successful deliveries.
func (h *Hub) Broadcast(message any) int {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode broadcast", map[string]interface{}{"error": err.Error()})
		return 0
	}

	h.publish(broadcastTarget, data)
	return h.broadcastLocal(data)
}

// NotifySurveyPublished sends a survey_notification to each target and
// returns how many of them were reached.
func (h *Hub) NotifySurveyPublished(survey dto.SurveySummary, targets []string) int {
	name := survey.Name
	if name == "" {
		name = "Untitled Survey"
	}
	msg := dto.SurveyNotificationMessage{
		Type:      dto.MessageTypeSurveyNotification,
		Survey:    survey,
		Message:   "New survey available: " + name,
		Timestamp: isotime.Now(),
	}

	reached := 0
	for _, userID := range targets {
		if h.SendToUser(userID, msg) {
			reached++
		}
	}
	h.logger.Info("Hub", "Survey notification sent", map[string]interface{}{
		"survey_id": survey.Id,
		"targets":   len(targets),
		"reached":   reached,
	})
	return reached
}

// ConnectedUsers returns the users with at least one connection, sorted.
func (h *Hub) ConnectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// ConnectionCount counts one user's connections, or all of them when userID
// is empty.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if userID != "" {
		return len(h.clients[userID])
	}
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

// deliverLocal returns the number of successful sends and whether the user
// still has connections after failed ones are dropped.
func (h *Hub) deliverLocal(userID string, data []byte) (int, bool) {
	h.mu.RLock()
	conns := append([]Connection(nil), h.clients[userID]...)
	h.mu.RUnlock()

	if len(conns) == 0 {
		return 0, false
	}

	sent := 0
	var failed []Connection
	for _, c := range conns {
		if c.Send(data) {
			sent++
			continue
		}
		failed = append(failed, c)
	}

	for _, c := range failed {
		h.logger.Warn("Hub", "Dropping unreachable connection", map[string]interface{}{"user_id": userID})
		h.Unregister(c, userID)
	}

	return sent, h.ConnectionCount(userID) > 0
}

func (h *Hub) broadcastLocal(data []byte) int {
	sent := 0
	for _, userID := range h.ConnectedUsers() {
		n, _ := h.deliverLocal(userID, data)
		sent += n
	}
	return sent
}

// deliverRemote handles a message forwarded by another instance.
func (h *Hub) deliverRemote(targetUserID string, data []byte) {
	if targetUserID == broadcastTarget {
		h.broadcastLocal(data)
		return
	}
	h.deliverLocal(targetUserID, data)
}

func (h *Hub) publish(target string, data []byte) {
	h.mu.RLock()
	f := h.fanout
	h.mu.RUnlock()
	if f != nil {
		f.Publish(target, data)
	}
}
