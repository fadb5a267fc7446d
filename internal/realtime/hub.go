package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// ScopeAll addresses every connection; ScopeModerators only promoted ones.
const (
	ScopeAll        = "all"
	ScopeModerators = "moderators"
)

// BridgePublisher publishes scoped events to other instances (Redis pub/sub).
type BridgePublisher interface {
	PublishEvent(scope, event string, payload []byte) error
}

// BridgeSubscriber subscribes to cross-instance events and invokes the handler
// for each incoming one.
type BridgeSubscriber interface {
	SubscribeEvents(handler func(scope, event string, payload []byte)) (cancel func(), err error)
}

// Hub tracks connected clients and fans out events to two audiences: every
// connection, and the moderator subset. With a bridge configured, broadcasts
// go through Redis so all instances (including this one) deliver each event
// exactly once to their local clients.
type Hub struct {
	clients    map[string]*Client
	moderators map[string]*Client
	mu         sync.RWMutex
	logger     *zap.Logger
	bridge     BridgePublisher
	cancelSub  func()
}

// NewHub creates a realtime hub. bridgePub may be nil for single-instance runs.
func NewHub(logger *zap.Logger, bridgePub BridgePublisher) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		moderators: make(map[string]*Client),
		logger:     logger,
		bridge:     bridgePub,
	}
}

// StartBridge begins consuming cross-instance events. Call once at startup.
func (h *Hub) StartBridge(sub BridgeSubscriber) error {
	cancel, err := sub.SubscribeEvents(func(scope, event string, payload []byte) {
		h.broadcastLocal(scope, event, json.RawMessage(payload))
	})
	if err != nil {
		return err
	}
	h.cancelSub = cancel
	return nil
}

// StopBridge cancels the cross-instance subscription.
func (h *Hub) StopBridge() {
	if h.cancelSub != nil {
		h.cancelSub()
		h.cancelSub = nil
	}
}

// Register adds a newly opened connection as a participant.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.id))
}

// Unregister removes a connection and its moderator membership, if any.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	delete(h.moderators, c.id)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.id))
}

// Promote adds a connection to the moderator scope. There is no demotion: the
// scope lasts until the connection closes.
func (h *Hub) Promote(c *Client) {
	h.mu.Lock()
	h.moderators[c.id] = c
	h.mu.Unlock()
	h.logger.Info("client promoted to moderator", zap.String("client_id", c.id))
}

// Broadcast sends an event to every connection, across all instances when a
// bridge is configured.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.publish(ScopeAll, event, payload)
}

// BroadcastModerators sends an event to moderator connections only.
func (h *Hub) BroadcastModerators(event string, payload interface{}) {
	h.publish(ScopeModerators, event, payload)
}

// SendToClient sends an event to a single local connection.
func (h *Hub) SendToClient(clientID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// ClientCount returns the number of connected clients on this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// publish routes through the bridge when configured, so the subscriber
// callback performs the one local delivery; otherwise broadcasts directly.
func (h *Hub) publish(scope, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal broadcast payload", zap.String("event", event), zap.Error(err))
		return
	}
	if h.bridge != nil {
		if err := h.bridge.PublishEvent(scope, event, data); err == nil {
			return
		}
		// Bridge down: degrade to local-only delivery.
	}
	h.broadcastLocal(scope, event, json.RawMessage(data))
}

func (h *Hub) broadcastLocal(scope, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	targets := h.clients
	if scope == ScopeModerators {
		targets = h.moderators
	}
	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
	h.mu.RUnlock()
}
