package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/macieste/lesson-booking/internal/domain"
)

// DefaultTopic топик событий бронирований
const DefaultTopic = "booking.events"

// MessageWriter часть *kafka.Writer, которую использует Publisher
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher публикует события бронирований в Kafka
// Ключ сообщения - ID бронирования, чтобы события одной записи шли по порядку
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher создаёт publisher с kafka.Writer для указанных брокеров
func NewKafkaPublisher(brokers []string, topic string, writeTimeout time.Duration) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	})
}

// NewKafkaPublisherWithWriter создаёт publisher поверх готового writer
func NewKafkaPublisherWithWriter(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish сериализует событие в JSON и отправляет его
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshal, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.BookingID.String()),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: type=%s booking=%s: %v", ErrPublish, event.Type, event.BookingID, err)
	}
	return nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher отбрасывает события; используется, когда Kafka выключена
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.BookingEvent) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
