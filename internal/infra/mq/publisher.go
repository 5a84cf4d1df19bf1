package mq

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/goshop/internal/tasks"
)

// TaskPublisher 把通知任务投递到持久化队列，由 notify-worker 消费
type TaskPublisher struct {
	mu    sync.Mutex
	ch    *amqp.Channel
	queue string
}

func NewTaskPublisher(conn *amqp.Connection, queue string) (*TaskPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if err := declareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(err, "declare queue")
	}
	return &TaskPublisher{ch: ch, queue: queue}, nil
}

// Enqueue 消息 ID 即任务句柄
func (p *TaskPublisher) Enqueue(ctx context.Context, task string, payload tasks.Payload) (string, error) {
	body, err := jsoniter.Marshal(payload)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Type:         task,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return "", errors.Wrapf(err, "publish %s", task)
	}
	return id, nil
}

func (p *TaskPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
