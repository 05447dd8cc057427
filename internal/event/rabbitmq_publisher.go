package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/audit"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyTransitionRecorded = "audit.transition.recorded"
	routingKeyEventRecorded      = "audit.event.recorded"
	publisherAppID               = "origination-engine"
)

// RabbitMQAuditPublisher fans audit records out to a topic exchange so
// downstream systems can follow application lifecycles without polling the
// audit tables.
type RabbitMQAuditPublisher struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

var _ audit.Publisher = (*RabbitMQAuditPublisher)(nil)

func NewRabbitMQAuditPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (*RabbitMQAuditPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQAuditPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQAuditPublisher", "exchange", exchangeName),
	}, nil
}

func (p *RabbitMQAuditPublisher) PublishTransitionRecorded(ctx context.Context, t audit.Transition) error {
	return p.publish(ctx, routingKeyTransitionRecorded, t)
}

func (p *RabbitMQAuditPublisher) PublishEventRecorded(ctx context.Context, e audit.Event) error {
	return p.publish(ctx, routingKeyEventRecorded, e)
}

func (p *RabbitMQAuditPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal audit record to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	logCtx.DebugContext(ctx, "Publishing message", "bodySize", len(body))

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			AppId:        publisherAppID,
		},
	)

	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully published message")
	return nil
}
