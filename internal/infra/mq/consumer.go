package mq

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/monitor"
	"github.com/example/goshop/internal/tasks"
)

const (
	taskTimeout = 30 * time.Second
	// maxRetries 超过后丢弃消息
	maxRetries  = 5
	retryDelay  = 2 * time.Second
	retryHeader = "x-retry-count"
)

type action int

const (
	actionAck action = iota
	actionDrop
	actionRequeue
)

// ackAction 处理结果到确认方式的映射：
// 发送失败已记录在结果里，照常 ack；未知任务或订单不存在重试也无意义，直接丢弃；
// 其余错误延迟后重新入队，重试 maxRetries 次后丢弃
func ackAction(err error, retries int) action {
	switch {
	case err == nil:
		return actionAck
	case errors.Is(err, tasks.ErrUnknownTask), errors.Is(err, order.ErrNotFound):
		return actionDrop
	case retries >= maxRetries:
		return actionDrop
	}
	return actionRequeue
}

// retryCount 读取消息头里的重试次数
func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// republisher 把消息重新投递到任务队列
type republisher func(ctx context.Context, msg amqp.Publishing) error

// backoff 第 n 次重试前的等待时间
func backoff(n int) time.Duration {
	return time.Duration(n+1) * retryDelay
}

// Consume 手动确认模式消费任务，ctx 取消或通道关闭时返回
func Consume(ctx context.Context, conn *amqp.Connection, queue string, prefetch int, handlers map[string]tasks.Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareQueue(ch, queue); err != nil {
		return err
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return err
		}
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	republish := func(ctx context.Context, msg amqp.Publishing) error {
		return ch.PublishWithContext(ctx, "", queue, false, false, msg)
	}

	zap.L().Info("notify worker started, waiting for messages...", zap.String("queue", queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			handleDelivery(ctx, handlers, republish, backoff, d)
		}
	}
}

func handleDelivery(ctx context.Context, handlers map[string]tasks.Handler, republish republisher, wait func(int) time.Duration, d amqp.Delivery) {
	var p tasks.Payload
	if err := jsoniter.Unmarshal(d.Body, &p); err != nil {
		zap.L().Error("invalid task message", zap.String("message_id", d.MessageId), zap.Error(err))
		monitor.Get().RecordWorker(false)
		_ = d.Nack(false, false)
		return
	}

	tctx, cancel := context.WithTimeout(ctx, taskTimeout)
	r, err := tasks.Run(tctx, handlers, d.Type, p)
	cancel()

	retries := retryCount(d.Headers)
	logger := zap.L().With(zap.String("task", d.Type), zap.String("task_id", d.MessageId), zap.Int64("order_id", p.OrderID), zap.Int("retries", retries))
	monitor.Get().RecordWorker(err == nil)
	switch ackAction(err, retries) {
	case actionAck:
		logger.Info("task done", zap.Bool("success", r.Success), zap.String("error", r.Error))
		if err := d.Ack(false); err != nil {
			logger.Error("failed to ack message", zap.Error(err))
		}
	case actionDrop:
		logger.Error("task dropped", zap.Error(err))
		_ = d.Nack(false, false)
	case actionRequeue:
		logger.Warn("task failed, retry later", zap.Error(err))
		requeue(ctx, republish, wait(retries), retries, d, logger)
	}
}

// requeue 等待后带上新的重试次数重新投递，原消息 ack；投递失败则交回 broker 重新入队
func requeue(ctx context.Context, republish republisher, delay time.Duration, retries int, d amqp.Delivery, logger *zap.Logger) {
	select {
	case <-ctx.Done():
		_ = d.Nack(false, true)
		return
	case <-time.After(delay):
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retries + 1)
	err := republish(ctx, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Type:         d.Type,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	})
	if err != nil {
		logger.Error("republish task failed", zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	if err := d.Ack(false); err != nil {
		logger.Error("failed to ack message", zap.Error(err))
	}
}
