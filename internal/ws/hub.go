package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/metrics"
	"github.com/huddlechat/huddle-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisChannel is the pub/sub channel used to fan events out across instances
const RedisChannel = "chat:events"

// Event is a live-update frame sent to every subscriber of a scope
type Event struct {
	Type    string      `json:"type"`
	Scope   string      `json:"scope"`
	Payload interface{} `json:"payload"`
}

// Hub manages WebSocket clients and their scope subscriptions.
// The Run goroutine owns the topic map, so events for one scope are
// delivered to each client in publish order.
type Hub struct {
	// Subscribed clients grouped by scope key
	topics map[string]map[*Client]bool
	// Every registered client and the scopes it follows
	clients map[*Client]map[string]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscription
	unsubscribe chan *subscription
	broadcast   chan *Event
	reply       chan *directFrame

	instanceID  string
	mu          sync.RWMutex
	redisClient *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscription struct {
	client *Client
	topic  string
}

type directFrame struct {
	client *Client
	event  *Event
}

// NewHub creates a new Hub; redisClient may be nil for a single instance
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		topics:      make(map[string]map[*Client]bool),
		clients:     make(map[*Client]map[string]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *subscription),
		unsubscribe: make(chan *subscription),
		broadcast:   make(chan *Event, 256),
		reply:       make(chan *directFrame, 64),
		instanceID:  uuid.New().String(),
		redisClient: redisClient,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Reply sends a frame to one client only (acks and errors)
func (h *Hub) Reply(client *Client, event *Event) {
	select {
	case h.reply <- &directFrame{client: client, event: event}:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Subscribe starts delivering the scope's events to the client
func (h *Hub) Subscribe(client *Client, scope domain.Scope) {
	select {
	case h.subscribe <- &subscription{client: client, topic: scope.Key()}:
	case <-h.ctx.Done():
	}
}

// Unsubscribe stops delivering the scope's events to the client
func (h *Hub) Unsubscribe(client *Client, scope domain.Scope) {
	select {
	case h.unsubscribe <- &subscription{client: client, topic: scope.Key()}:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = make(map[string]bool)
			metrics.SetWSClients(len(h.clients))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case sub := <-h.subscribe:
			h.mu.Lock()
			if topics, ok := h.clients[sub.client]; ok {
				topics[sub.topic] = true
				if h.topics[sub.topic] == nil {
					h.topics[sub.topic] = make(map[*Client]bool)
				}
				h.topics[sub.topic][sub.client] = true
			}
			h.mu.Unlock()

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			if topics, ok := h.clients[sub.client]; ok {
				delete(topics, sub.topic)
				h.leaveTopic(sub.client, sub.topic)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.deliver(event)

		case frame := <-h.reply:
			h.sendDirect(frame)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) deliver(event *Event) {
	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.topics[event.Scope]))
	for client := range h.topics[event.Scope] {
		subscribers = append(subscribers, client)
	}
	h.mu.RUnlock()
	if len(subscribers) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.GetLogger().Warn().Err(err).Str("type", event.Type).Msg("ws event marshal failed")
		return
	}
	for _, client := range subscribers {
		select {
		case client.send <- data:
			metrics.WSEventDelivered(event.Type)
		default:
			// slow consumer: drop it, the client resyncs with a list call
			metrics.WSClientDropped()
			h.remove(client)
		}
	}
}

func (h *Hub) sendDirect(frame *directFrame) {
	h.mu.RLock()
	_, ok := h.clients[frame.client]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(frame.event)
	if err != nil {
		return
	}
	select {
	case frame.client.send <- data:
	default:
		metrics.WSClientDropped()
		h.remove(frame.client)
	}
}

// remove unregisters the client and closes its send channel once
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topics, ok := h.clients[client]
	if !ok {
		return
	}
	for topic := range topics {
		h.leaveTopic(client, topic)
	}
	delete(h.clients, client)
	close(client.send)
	metrics.SetWSClients(len(h.clients))
}

// leaveTopic must be called with mu held
func (h *Hub) leaveTopic(client *Client, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish sends an event to the scope's local subscribers and, when Redis
// is configured, to the other instances.
func (h *Hub) Publish(ctx context.Context, scope domain.Scope, eventType string, payload interface{}) {
	event := &Event{Type: eventType, Scope: scope.Key(), Payload: payload}

	// Local broadcast
	select {
	case h.broadcast <- event:
	case <-h.ctx.Done():
		return
	}

	// Publish to Redis for multi-instance support
	if h.redisClient != nil {
		frame, err := json.Marshal(event)
		if err != nil {
			return
		}
		data, err := json.Marshal(&redisMessage{Origin: h.instanceID, Event: frame})
		if err != nil {
			return
		}
		if err := h.redisClient.Publish(ctx, RedisChannel, data).Err(); err != nil {
			logger.GetLogger().Warn().Err(err).Str("type", eventType).Msg("redis publish failed")
		}
	}
}

type redisMessage struct {
	Origin string          `json:"origin"`
	Event  json.RawMessage `json:"event"`
}

// eventFrame decodes the event, keeping the payload as raw JSON
func (m *redisMessage) eventFrame() (*Event, error) {
	var ev struct {
		Type    string          `json:"type"`
		Scope   string          `json:"scope"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(m.Event, &ev); err != nil {
		return nil, err
	}
	return &Event{Type: ev.Type, Scope: ev.Scope, Payload: ev.Payload}, nil
}

// subscribeRedis listens for events published by other instances
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, RedisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRemote([]byte(msg.Payload))
		case <-h.ctx.Done():
			return
		}
	}
}

// handleRemote rebroadcasts a peer's event locally (never re-published)
func (h *Hub) handleRemote(data []byte) {
	var rm redisMessage
	if err := json.Unmarshal(data, &rm); err != nil {
		return
	}
	if rm.Origin == h.instanceID {
		return
	}
	event, err := rm.eventFrame()
	if err != nil {
		return
	}
	select {
	case h.broadcast <- event:
	case <-h.ctx.Done():
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
