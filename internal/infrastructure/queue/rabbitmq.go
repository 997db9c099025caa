package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
	"github.com/johnquangdev/dubbing-service/internal/usecase/pipeline"
)

// StartMessage asks the service to run a job
type StartMessage struct {
	JobID string `json:"job_id"`
}

// Starter begins a run for a job
type Starter interface {
	Start(ctx context.Context, jobID uuid.UUID) error
}

// Publisher sends job events to a durable queue
type Publisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

// NewPublisher connects to RabbitMQ and declares the events queue
func NewPublisher(url, queueName string, logger *zap.Logger) (*Publisher, error) {
	conn, ch, err := open(url, queueName)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queueName, logger: logger}, nil
}

// PublishJobEvent implements pipeline.EventPublisher
func (p *Publisher) PublishJobEvent(ctx context.Context, event pipeline.JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode job event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.At,
		MessageId:    uuid.NewString(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job event: %w", err)
	}
	return nil
}

// Close closes the channel and connection
func (p *Publisher) Close() {
	closeAll(p.ch, p.conn, p.logger)
}

// Consumer turns start messages into job runs
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	starter Starter
	logger  *zap.Logger
}

// NewConsumer connects to RabbitMQ and declares the start queue
func NewConsumer(url, queueName string, starter Starter, logger *zap.Logger) (*Consumer, error) {
	conn, ch, err := open(url, queueName)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		closeAll(ch, conn, logger)
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queueName, starter: starter, logger: logger}, nil
}

// Consume handles deliveries until ctx ends or the channel closes
func (c *Consumer) Consume(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("🐰 Listening for job start commands", zap.String("queue", c.queue))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	requeue, err := HandleStart(ctx, d.Body, c.starter)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil && c.logger != nil {
			c.logger.Warn("⚠️ Failed to ack start command", zap.Error(ackErr))
		}
		return
	}

	if c.logger != nil {
		c.logger.Warn("⚠️ Start command rejected",
			zap.ByteString("body", d.Body),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
	}
	if nackErr := d.Nack(false, requeue); nackErr != nil && c.logger != nil {
		c.logger.Warn("⚠️ Failed to nack start command", zap.Error(nackErr))
	}
}

// Close closes the channel and connection
func (c *Consumer) Close() {
	closeAll(c.ch, c.conn, c.logger)
}

// HandleStart decodes a start message and starts the job. A job that is already running
// counts as handled. Requeue is only requested when this process is shutting down.
func HandleStart(ctx context.Context, body []byte, starter Starter) (requeue bool, err error) {
	var msg StartMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return false, fmt.Errorf("failed to decode start message: %w", err)
	}
	jobID, err := uuid.Parse(msg.JobID)
	if err != nil {
		return false, fmt.Errorf("%w: job_id %q", usecaseErrors.ErrInvalidInput, msg.JobID)
	}

	err = starter.Start(ctx, jobID)
	switch {
	case err == nil, errors.Is(err, usecaseErrors.ErrAlreadyRunning):
		return false, nil
	case errors.Is(err, usecaseErrors.ErrShuttingDown):
		return true, err
	default:
		return false, err
	}
}

func open(url, queueName string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 10 * time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return conn, ch, nil
}

func closeAll(ch *amqp.Channel, conn *amqp.Connection, logger *zap.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil && logger != nil {
			logger.Warn("⚠️ Failed to close rabbitmq channel", zap.Error(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && logger != nil {
			logger.Warn("⚠️ Failed to close rabbitmq connection", zap.Error(err))
		}
	}
	if logger != nil {
		logger.Info("🔌 RabbitMQ closed")
	}
}
