// Package bridge consumes notification envelopes published by the messaging,
// moderation and payment services and forwards them into the gateway facade.
// Delivery into the gateway is best-effort: offsets are always marked, and a
// target with no live connections is left to the publisher's persisted
// fallback path.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"gateway-service/internal/gateway"
)

// Envelope kinds.
const (
	KindSendToUser    = "sendToUser"
	KindBroadcastRoom = "broadcastRoom"
	KindNotifyAdmins  = "notifyAdmins"
)

// Envelope is one externally published gateway instruction.
type Envelope struct {
	Kind    string                 `json:"kind"`
	UserID  uint                   `json:"userId,omitempty"`
	Room    string                 `json:"room,omitempty"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Dispatcher is the slice of the gateway facade the bridge needs.
type Dispatcher interface {
	SendToUser(userID uint, event string, payload interface{}) (int, error)
	BroadcastToRoom(key gateway.RoomKey, event string, payload interface{}) error
	NotifyAdmins(event string, payload map[string]interface{}) (bool, error)
}

// Consumer reads envelopes from a Kafka topic via a consumer group.
type Consumer struct {
	group  sarama.ConsumerGroup
	topic  string
	gw     Dispatcher
	logger *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, gw Dispatcher, logger *slog.Logger) (*Consumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	config := sarama.NewConfig()
	config.Version = sarama.V2_0_0_0
	config.ClientID = "gateway-service"
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return &Consumer{group: group, topic: topic, gw: gw, logger: logger}, nil
}

// Run consumes until the context is cancelled. Consume returns on rebalance;
// the loop re-enters it, which is the expected sarama pattern.
func (c *Consumer) Run(ctx context.Context) error {
	handler := &groupHandler{gw: c.gw, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			c.logger.Error("kafka consume failed", "topic", c.topic, "error", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	gw     Dispatcher
	logger *slog.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := Dispatch(h.gw, msg.Value); err != nil {
				h.logger.Warn("envelope dropped", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// Dispatch decodes one envelope and invokes the matching facade operation.
func Dispatch(gw Dispatcher, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Kind {
	case KindSendToUser:
		_, err := gw.SendToUser(env.UserID, env.Event, payloadOf(env))
		return err
	case KindBroadcastRoom:
		if env.Room == "" {
			return gateway.ErrBadRequest
		}
		return gw.BroadcastToRoom(gateway.RoomKey(env.Room), env.Event, payloadOf(env))
	case KindNotifyAdmins:
		_, err := gw.NotifyAdmins(env.Event, env.Payload)
		return err
	default:
		return fmt.Errorf("unknown envelope kind %q", env.Kind)
	}
}

func payloadOf(env Envelope) interface{} {
	if env.Payload == nil {
		return nil
	}
	return env.Payload
}
