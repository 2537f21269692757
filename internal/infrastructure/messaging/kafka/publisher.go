package kafka

import (
	"context"
	"encoding/json"

	"github.com/irisuniflora/VF/internal/domain/event"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

// EventPublisher sends viewer events to one topic, keyed by structure id so
// the events of a structure stay ordered within a partition.
type EventPublisher struct {
	producer *Producer
	topic    string
	logger   logging.Logger
}

var _ event.Publisher = (*EventPublisher)(nil)

// NewEventPublisher returns an event.Publisher over producer.
func NewEventPublisher(producer *Producer, topic string, logger logging.Logger) *EventPublisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EventPublisher{producer: producer, topic: topic, logger: logger}
}

// Publish encodes ev and queues it.  It never blocks.
func (p *EventPublisher) Publish(_ context.Context, ev event.Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("event encoding failed", logging.String("type", ev.Type), logging.Err(err))
		return
	}
	p.producer.PublishAsync(Message{
		Topic:     p.topic,
		Key:       []byte(ev.StructureID),
		Value:     value,
		Headers:   map[string]string{"event-type": ev.Type},
		Timestamp: ev.Time,
	})
}
