package producer

import (
	"context"

	"go-leaveflow/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: event.Topic,
		// Keyed by aggregate so every event of one leave request lands on
		// the same partition, preserving decision order.
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
