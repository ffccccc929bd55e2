package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ObservationPublisher publishes observation lifecycle events to RabbitMQ.
type ObservationPublisher struct {
	conn *RabbitMQConnection

	mu                sync.Mutex
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

func NewObservationPublisher(conn *RabbitMQConnection) *ObservationPublisher {
	return &ObservationPublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

func (p *ObservationPublisher) PublishObservationStarted(ctx context.Context, event ObservationStartedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.recordFailure()
		return fmt.Errorf("failed to marshal observation event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",                    // exchange
		ObservationEventQueue, // routing key (queue name)
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         string(event.EventType),
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.recordFailure()
		return fmt.Errorf("failed to publish observation event: %w", err)
	}

	p.mu.Lock()
	p.messagesPublished++
	p.lastPublishTime = time.Now()
	p.mu.Unlock()

	slog.Info("Observation event published",
		"queue", ObservationEventQueue,
		"event_type", event.EventType,
		"observation_id", event.ObservationID,
	)

	return nil
}

func (p *ObservationPublisher) recordFailure() {
	p.mu.Lock()
	p.messagesFailed++
	p.mu.Unlock()
}

// HealthCheck returns the health status of the publisher
func (p *ObservationPublisher) HealthCheck() PublisherHealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished,
		MessagesFailed:    p.messagesFailed,
		LastPublishTime:   p.lastPublishTime,
		Queue:             ObservationEventQueue,
	}
}

// PublisherHealthStatus represents the health status of the publisher
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}
