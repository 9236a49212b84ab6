// Package kafka publishes click events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/internal/events"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"github.com/IgorGrieder/clicktrack/internal/infrastructure/telemetry"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 2 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
}

func NewPublisher(brokers []string, topic string, writeTimeout time.Duration) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka publisher configured",
		zap.Strings("kafka_brokers", brokers),
		zap.String("kafka_topic", topic),
	)
	return newPublisher(w, topic, writeTimeout)
}

func newPublisher(w messageWriter, topic string, writeTimeout time.Duration) *Publisher {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Publisher{writer: w, topic: topic, writeTimeout: writeTimeout}
}

// PublishClick writes one ClickRecorded message keyed by short code, so all
// clicks of a link land on the same partition.
func (p *Publisher) PublishClick(ctx context.Context, link *domain.ShortURL, event *domain.ClickEvent) error {
	ctx, span := telemetry.Tracer.Start(ctx, "kafka.publish.click_recorded",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.message.id", event.ID),
			attribute.String("messaging.kafka.message_key", link.Code),
		),
	)
	defer span.End()

	msg, err := buildMessage(ctx, link, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "kafka publish failed")
		return fmt.Errorf("publish click %s: %w", event.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func buildMessage(ctx context.Context, link *domain.ShortURL, event *domain.ClickEvent) (kafka.Message, error) {
	value, err := json.Marshal(events.NewClickRecorded(link, event))
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode click event: %w", err)
	}

	headers := []kafka.Header{{Key: "event-type", Value: []byte(events.ClickRecordedType)}}
	carrier := telemetry.InjectMap(ctx)
	keys := make([]string, 0, len(carrier))
	for k := range carrier {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if carrier[k] == "" {
			continue
		}
		headers = append(headers, kafka.Header{Key: k, Value: []byte(carrier[k])})
	}

	return kafka.Message{
		Key:     []byte(link.Code),
		Value:   value,
		Time:    event.Timestamp.UTC(),
		Headers: headers,
	}, nil
}
