package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gateway-service/internal/gateway"
)

const roomChannelPrefix = "room:"

// roomEnvelope is the cross-instance fan-out message published to Redis.
// Origin lets an instance skip its own publications, which it has already
// delivered locally.
type roomEnvelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Data   json.RawMessage `json:"data"`
}

// Hub is the websocket transport: it owns the set of live clients and the
// room membership primitive, and fans room broadcasts out across instances
// through Redis pub/sub. It implements gateway.Transport.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[gateway.RoomKey]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	redis      *redis.Client
	instanceID string
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[gateway.RoomKey]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      redisClient,
		instanceID: uuid.New().String(),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes register/unregister requests and starts the Redis listener
// for cross-instance room broadcasts.
func (h *Hub) Run() {
	if h.redis != nil {
		go h.redisListener()
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.ctx.Done():
			h.logger.Info("hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.logger.Debug("client attached", "connID", client.id, "userID", client.identity.UserID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	for key, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
	}
	h.mu.Unlock()

	client.closeSend()
	h.logger.Debug("client detached", "connID", client.id, "userID", client.identity.UserID)
}

// JoinRoom adds the connection to the room. Already-member joins are no-ops.
func (h *Hub) JoinRoom(connID string, key gateway.RoomKey) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return fmt.Errorf("join room %s: unknown connection %s", key, connID)
	}
	if h.rooms[key] == nil {
		h.rooms[key] = make(map[*Client]struct{})
	}
	h.rooms[key][client] = struct{}{}
	return nil
}

// LeaveRoom removes the connection from the room. Unknown members tolerate.
func (h *Hub) LeaveRoom(connID string, key gateway.RoomKey) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return nil
	}
	if members, exists := h.rooms[key]; exists {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
	}
	return nil
}

// RoomSize returns the number of local members in the room.
func (h *Hub) RoomSize(key gateway.RoomKey) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[key])
}

// EmitToConnection pushes one event to a single local connection.
func (h *Hub) EmitToConnection(connID string, event string, payload interface{}) error {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("emit %s: unknown connection %s", event, connID)
	}
	data, err := json.Marshal(PushFrame{Event: event, Payload: payload, Timestamp: time.Now().Unix()})
	if err != nil {
		return err
	}
	return client.enqueue(data)
}

// EmitToRoom delivers the event to every local member of the room and
// publishes it to Redis so other instances deliver to theirs.
func (h *Hub) EmitToRoom(key gateway.RoomKey, event string, payload interface{}) error {
	data, err := json.Marshal(PushFrame{Event: event, Payload: payload, Timestamp: time.Now().Unix()})
	if err != nil {
		return err
	}

	delivered := h.deliverLocal(key, data)
	h.logger.Debug("room broadcast", "room", key, "event", event, "localDelivered", delivered)

	if h.redis != nil {
		envelope, err := json.Marshal(roomEnvelope{
			Origin: h.instanceID,
			Room:   string(key),
			Data:   data,
		})
		if err != nil {
			return err
		}
		if err := h.redis.Publish(h.ctx, roomChannelPrefix+string(key), envelope).Err(); err != nil {
			h.logger.Error("redis publish failed", "room", key, "error", err)
		}
	}
	return nil
}

func (h *Hub) deliverLocal(key gateway.RoomKey, data []byte) int {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[key]))
	for client := range h.rooms[key] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range members {
		if err := client.enqueue(data); err != nil {
			h.logger.Debug("room delivery dropped", "connID", client.id, "room", key, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// redisListener distributes room broadcasts published by other instances to
// this instance's local members.
func (h *Hub) redisListener() {
	pubsub := h.redis.PSubscribe(h.ctx, roomChannelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var envelope roomEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				h.logger.Error("malformed room envelope", "channel", msg.Channel, "error", err)
				continue
			}
			if envelope.Origin == h.instanceID {
				continue
			}
			key := gateway.RoomKey(strings.TrimPrefix(msg.Channel, roomChannelPrefix))
			h.deliverLocal(key, envelope.Data)
		case <-h.ctx.Done():
			return
		}
	}
}
