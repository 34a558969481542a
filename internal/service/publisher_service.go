package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Lifecycle event types
const (
	EventSessionCreated      = "SESSION_CREATED"
	EventGenerationCompleted = "GENERATION_COMPLETED"
)

// LifecycleMessage is the payload carried on the in-process topic.
type LifecycleMessage struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
	PublishEvent(ctx context.Context, eventType string, data map[string]interface{}) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}

func (p *publisherService) PublishEvent(ctx context.Context, eventType string, data map[string]interface{}) error {
	payload, err := json.Marshal(LifecycleMessage{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal lifecycle event: %w", err)
	}
	return p.Publish(ctx, payload)
}
