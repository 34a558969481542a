package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/events"
)

const consumerLogModule = "CONSUMER"

// EventPublisher is the outbound bus (NATS JetStream in production).
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService relays lifecycle messages from the in-process topic to the
// outbound bus so request handlers never wait on NATS.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	outbound   EventPublisher
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	outbound EventPublisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		outbound:   outbound,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload LifecycleMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerLogModule, "Failed to unmarshal lifecycle message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Debug(consumerLogModule, "Lifecycle event", map[string]interface{}{
		"type": payload.Type,
		"data": payload.Data,
	})

	if cs.outbound == nil {
		msg.Ack()
		return
	}

	evt := events.BaseEvent{
		Type:       payload.Type,
		Data:       payload.Data,
		OccurredAt: payload.OccurredAt,
	}
	if err := cs.outbound.Publish(ctx, evt); err != nil {
		// Delivery is best-effort; a NATS outage must not loop redelivery
		cs.logger.Warn(consumerLogModule, "Failed to relay lifecycle event", map[string]interface{}{
			"type":  payload.Type,
			"error": err.Error(),
		})
	}
	msg.Ack()
}
