package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/monitor"
)

const localTaskTimeout = 30 * time.Second

// LocalQueue 进程内协程池执行任务，不依赖外部消息队列
// 池满时任务排队等待空闲 worker，不会丢弃
type LocalQueue struct {
	pool     *ants.Pool
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewLocalQueue(size int, handlers map[string]Handler) (*LocalQueue, error) {
	if size <= 0 {
		size = 16
	}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(p interface{}) {
			zap.L().Error("notification task panic", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &LocalQueue{pool: pool, handlers: handlers}, nil
}

// Enqueue 立即返回，任务在池中异步执行，与请求的 ctx 无关
func (q *LocalQueue) Enqueue(_ context.Context, task string, p Payload) (string, error) {
	if _, ok := q.handlers[task]; !ok {
		return "", errors.Wrap(ErrUnknownTask, task)
	}
	id := uuid.NewString()
	q.wg.Add(1)
	// 阻塞式提交放在单独的协程里，请求不用等 worker 空闲
	go q.submit(task, id, p)
	return id, nil
}

func (q *LocalQueue) submit(task, id string, p Payload) {
	err := q.pool.Submit(func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), localTaskTimeout)
		defer cancel()

		r, err := Run(ctx, q.handlers, task, p)
		monitor.Get().RecordWorker(err == nil)
		if err != nil {
			zap.L().Error("notification task failed", zap.String("task", task), zap.String("task_id", id), zap.Int64("order_id", p.OrderID), zap.Error(err))
			return
		}
		zap.L().Info("notification task done", zap.String("task", task), zap.String("task_id", id), zap.Int64("order_id", p.OrderID), zap.Bool("success", r.Success))
	})
	if err != nil {
		q.wg.Done()
		monitor.Get().RecordWorker(false)
		zap.L().Error("submit notification task failed", zap.String("task", task), zap.String("task_id", id), zap.Int64("order_id", p.OrderID), zap.Error(err))
	}
}

// Wait 等待已提交的任务执行完
func (q *LocalQueue) Wait() {
	q.wg.Wait()
}

// Release 等待任务结束并释放协程池
func (q *LocalQueue) Release() {
	q.wg.Wait()
	q.pool.Release()
}
