package broker

import (
	"context"
	"fmt"

	"purchase-service/internal/models"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPurchaseCreated publishes PurchaseCreated event
func (ep *EventPublisher) PublishPurchaseCreated(ctx context.Context, event *models.PurchaseCreatedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPurchaseUpdated publishes PurchaseUpdated event
func (ep *EventPublisher) PublishPurchaseUpdated(ctx context.Context, event *models.PurchaseUpdatedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPurchaseDeleted publishes PurchaseDeleted event
func (ep *EventPublisher) PublishPurchaseDeleted(ctx context.Context, event *models.PurchaseDeletedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishMatchingCompleted publishes MatchingCompleted event
func (ep *EventPublisher) PublishMatchingCompleted(ctx context.Context, event *models.MatchingCompletedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishMatchingFailed publishes MatchingFailed event
func (ep *EventPublisher) PublishMatchingFailed(ctx context.Context, event *models.MatchingFailedEvent) error {
	key := fmt.Sprintf("purchase-%d", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishResyncCompleted publishes ResyncCompleted event
func (ep *EventPublisher) PublishResyncCompleted(ctx context.Context, event *models.ResyncCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, "resync", event)
}
