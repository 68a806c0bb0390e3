package events

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic keyed by vehicle.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

// NewKafkaWriter returns a writer with hash balancing so a vehicle's events
// always land on the same partition.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewKafkaPublisher wraps w. The topic is set per message, so w must not
// have its own Topic.
func NewKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	if topic == "" {
		topic = "maintenance.predictions"
	}
	return &KafkaPublisher{w: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.payload()
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(e.Key()),
		Value: body,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "kafka write %s", p.topic)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
