package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cohort-tools/apiserver/internal/mq"
	"github.com/cohort-tools/apiserver/types"
	"github.com/rs/zerolog/log"
)

// EventChannel is the broker channel all record-change events go to.
const EventChannel = "cohort-events"

const publishTimeout = 5 * time.Second

// EventPublisher emits record-change events to the configured broker.
// Publishing is best effort: failures are logged and never fail the request
// that triggered them. A nil publisher or broker is a no-op.
type EventPublisher struct {
	broker *mq.MQ
}

func NewEventPublisher(broker *mq.MQ) *EventPublisher {
	return &EventPublisher{broker: broker}
}

func (p *EventPublisher) Publish(eventType, entityID string) {
	if p == nil || p.broker == nil {
		return
	}

	event := types.Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if _, err := p.broker.Publish(ctx, EventChannel, data, map[string]string{"type": eventType}); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish event")
	}
}
