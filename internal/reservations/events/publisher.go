package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservo/pkg/kafka"
	"reservo/pkg/middleware"
	"reservo/pkg/model"
)

const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"

	// HeaderReservationStatus lets consumers filter without decoding.
	HeaderReservationStatus = "reservation-status"

	schemaVersion = "1"
)

type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	SlotID        string    `json:"slot_id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, reservation *model.Reservation) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer messagePublisher
	source   string
}

// NewKafkaPublisher publishes reservation events keyed by slot id so events
// for one slot keep their order.
func NewKafkaPublisher(producer *kafka.Producer, source string) Publisher {
	return &kafkaPublisher{producer: producer, source: source}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, reservation *model.Reservation) error {
	msg, err := NewEventMessage(eventType, reservation, p.source, middleware.RequestIDFromContext(ctx))
	if err != nil {
		return err
	}
	err = p.producer.Publish(ctx, msg)
	if isTransient(err) && ctx.Err() == nil {
		err = p.producer.Publish(ctx, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

func isTransient(err error) bool {
	var kafkaErr *kafka.KafkaError
	return errors.As(err, &kafkaErr) && kafkaErr.IsTransient()
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

func NewEventMessage(eventType string, reservation *model.Reservation, source, correlationID string) (kafka.Message, error) {
	return kafka.NewMessage().
		WithKey(reservation.SlotID).
		WithValue(ReservationEvent{
			ReservationID: reservation.ID,
			SlotID:        reservation.SlotID,
			UserID:        reservation.UserID,
			Date:          reservation.Date,
			Status:        reservation.Status,
			OccurredAt:    time.Now().UTC(),
		}).
		WithEventID("").
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		WithCorrelationID(correlationID).
		WithHeader(HeaderReservationStatus, reservation.Status).
		Build()
}

type noopPublisher struct{}

// NewNoopPublisher is used when no Kafka brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, *model.Reservation) error { return nil }

func (noopPublisher) Close() error { return nil }
