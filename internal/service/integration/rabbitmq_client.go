package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
)

const (
	routingKeySubmissionReceived = "submission.received"
	routingKeySubmissionReviewed = "submission.reviewed"
)

type EventPublisher interface {
	PublishSubmissionReceived(ctx context.Context, event *models.SubmissionReceivedEvent) error
	PublishSubmissionReviewed(ctx context.Context, event *models.SubmissionReviewedEvent) error
	Close() error
}

type rabbitMQPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   zerolog.Logger
}

func NewRabbitMQPublisher(url, exchange, queueName string, logger zerolog.Logger) (EventPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,     // queue name
		"submission.*", // routing key
		exchange,       // exchange
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Str("queue", queue.Name).
		Msg("Connected to RabbitMQ")

	return &rabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (c *rabbitMQPublisher) PublishSubmissionReceived(ctx context.Context, event *models.SubmissionReceivedEvent) error {
	if err := c.publish(ctx, routingKeySubmissionReceived, event); err != nil {
		return err
	}

	c.logger.Info().
		Str("submission_id", event.SubmissionID).
		Int("version", event.Version).
		Msg("Submission received event published")

	return nil
}

func (c *rabbitMQPublisher) PublishSubmissionReviewed(ctx context.Context, event *models.SubmissionReviewedEvent) error {
	if err := c.publish(ctx, routingKeySubmissionReviewed, event); err != nil {
		return err
	}

	c.logger.Info().
		Str("submission_id", event.SubmissionID).
		Int("score", event.Score).
		Msg("Submission reviewed event published")

	return nil
}

func (c *rabbitMQPublisher) publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (c *rabbitMQPublisher) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
