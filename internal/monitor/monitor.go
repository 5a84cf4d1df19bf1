package monitor

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Monitor 监控服务，用于统计下单与通知的结果
type Monitor struct {
	mu sync.RWMutex

	// 下单统计
	OrderRequests  int64
	OrdersPlaced   int64
	OrdersRejected int64
	OrderConflicts int64
	DBErrors       int64

	// 通知统计
	TasksEnqueued   int64
	EnqueueErrors   int64
	SMSSent         int64
	SMSFailed       int64
	EmailSent       int64
	EmailFailed     int64
	WorkerProcessed int64
	WorkerFailed    int64

	// 时间统计
	LastOrderTime   time.Time
	LastDBError     time.Time
	LastNotifyError time.Time
	LastWorkerTime  time.Time
}

var global = &Monitor{}

// Get 获取全局监控实例
func Get() *Monitor {
	return global
}

// RecordOrderRequest 记录下单请求
func (m *Monitor) RecordOrderRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRequests++
}

// RecordOrderPlaced 记录下单成功
func (m *Monitor) RecordOrderPlaced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersPlaced++
	m.LastOrderTime = time.Now()
}

// RecordOrderRejected 记录校验失败
func (m *Monitor) RecordOrderRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersRejected++
}

// RecordOrderConflict 记录提交时库存冲突
func (m *Monitor) RecordOrderConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderConflicts++
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

func (m *Monitor) RecordEnqueue(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.EnqueueErrors++
		m.LastNotifyError = time.Now()
		return
	}
	m.TasksEnqueued++
}

// RecordSMS 记录短信发送结果
func (m *Monitor) RecordSMS(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.SMSSent++
		return
	}
	m.SMSFailed++
	m.LastNotifyError = time.Now()
}

// RecordEmail 记录管理员邮件发送结果
func (m *Monitor) RecordEmail(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.EmailSent++
		return
	}
	m.EmailFailed++
	m.LastNotifyError = time.Now()
}

// RecordWorker 记录 Worker 处理结果
func (m *Monitor) RecordWorker(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.WorkerProcessed++
		m.LastWorkerTime = time.Now()
		return
	}
	m.WorkerFailed++
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	placeRate := float64(0)
	if m.OrderRequests > 0 {
		placeRate = float64(m.OrdersPlaced) / float64(m.OrderRequests) * 100
	}

	return map[string]interface{}{
		"orders": map[string]interface{}{
			"requests":     m.OrderRequests,
			"placed":       m.OrdersPlaced,
			"rejected":     m.OrdersRejected,
			"conflicts":    m.OrderConflicts,
			"success_rate": placeRate,
			"db_errors":    m.DBErrors,
		},
		"notifications": map[string]interface{}{
			"enqueued":         m.TasksEnqueued,
			"enqueue_errors":   m.EnqueueErrors,
			"sms_sent":         m.SMSSent,
			"sms_failed":       m.SMSFailed,
			"email_sent":       m.EmailSent,
			"email_failed":     m.EmailFailed,
			"worker_processed": m.WorkerProcessed,
			"worker_failed":    m.WorkerFailed,
		},
		"last_events": map[string]interface{}{
			"order":        m.LastOrderTime,
			"db_error":     m.LastDBError,
			"notify_error": m.LastNotifyError,
			"worker":       m.LastWorkerTime,
		},
	}
}

// Reset 重置统计（用于测试或定期清理）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRequests = 0
	m.OrdersPlaced = 0
	m.OrdersRejected = 0
	m.OrderConflicts = 0
	m.DBErrors = 0
	m.TasksEnqueued = 0
	m.EnqueueErrors = 0
	m.SMSSent = 0
	m.SMSFailed = 0
	m.EmailSent = 0
	m.EmailFailed = 0
	m.WorkerProcessed = 0
	m.WorkerFailed = 0
}

// StartReporter 按 cron 表达式周期性输出统计日志
func StartReporter(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		zap.L().Info("monitor stats", zap.Any("stats", Get().GetStats()))
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
