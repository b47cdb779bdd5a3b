// Package rabbit publishes background job envelopes to RabbitMQ. The service
// only enqueues; workers consuming the queue (report rendering, CSV export,
// reminder delivery) live outside this process.
package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const jobsQueue = "quiz.jobs"

// Task names understood by the background workers.
const (
	TaskMonthlyReport  = "generate_monthly_report"
	TaskExportUserData = "export_user_data"
	TaskQuizReminder   = "send_quiz_reminder"
)

type envelope struct {
	ID         string         `json:"id"`
	Task       string         `json:"task"`
	Args       map[string]any `json:"args"`
	EnqueuedAt time.Time      `json:"enqueuedAt"`
}

// Dispatcher implements app.JobDispatcher over a durable queue.
type Dispatcher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
}

// Dial connects to RabbitMQ and declares the jobs queue.
func Dial(url string, log *zap.Logger) (*Dispatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(jobsQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", jobsQueue, err)
	}
	return &Dispatcher{conn: conn, ch: ch, log: log}, nil
}

// Submit publishes one task envelope and returns its handle. Fire-and-forget:
// the caller never learns whether a worker picked it up.
func (d *Dispatcher) Submit(ctx context.Context, task string, args map[string]any) (string, error) {
	env := envelope{
		ID:         uuid.NewString(),
		Task:       task,
		Args:       args,
		EnqueuedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}

	err = d.ch.PublishWithContext(ctx, "", jobsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Body:         body,
	})
	if err != nil {
		return "", fmt.Errorf("publish job %s: %w", task, err)
	}
	d.log.Debug("job enqueued", zap.String("task", task), zap.String("handle", env.ID))
	return env.ID, nil
}

func (d *Dispatcher) Close() error {
	if err := d.ch.Close(); err != nil {
		d.conn.Close()
		return err
	}
	return d.conn.Close()
}
