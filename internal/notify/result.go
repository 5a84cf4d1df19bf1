package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	radix "github.com/mediocregopher/radix/v3"
)

// Kind 通知类型
type Kind string

const (
	KindCustomerSMS Kind = "customer_sms"
	KindAdminEmail  Kind = "admin_email"
)

// Result 一次通知的结果，失败时 Error 与诊断字段有值，不会作为下单错误返回
type Result struct {
	Kind       Kind      `json:"kind"`
	OrderID    int64     `json:"order_id"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Message    string    `json:"message,omitempty"`
	Cost       string    `json:"cost,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Recipients int       `json:"recipients,omitempty"`
	At         time.Time `json:"at"`
}

// ResultStore 保存订单最近一次的通知结果
type ResultStore interface {
	Save(ctx context.Context, r *Result) error
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, orderID int64, kind Kind) (*Result, error)
}

// MemoryResultStore 进程内实现，用于本地与测试
type MemoryResultStore struct {
	mu   sync.RWMutex
	data map[string]*Result
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{data: make(map[string]*Result)}
}

func (s *MemoryResultStore) Save(_ context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.data[resultKey(r.OrderID, r.Kind)] = &cp
	return nil
}

func (s *MemoryResultStore) Get(_ context.Context, orderID int64, kind Kind) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[resultKey(orderID, kind)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// RedisResultStore 结果写入 Redis 并设置过期时间，Web 与 Worker 进程共享
type RedisResultStore struct {
	client radix.Client
	ttl    time.Duration
}

func NewRedisResultStore(client radix.Client, ttl time.Duration) *RedisResultStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisResultStore{client: client, ttl: ttl}
}

func (s *RedisResultStore) Save(_ context.Context, r *Result) error {
	data, err := jsoniter.Marshal(r)
	if err != nil {
		return err
	}
	return s.client.Do(radix.FlatCmd(nil, "SETEX", resultKey(r.OrderID, r.Kind), int(s.ttl.Seconds()), data))
}

func (s *RedisResultStore) Get(_ context.Context, orderID int64, kind Kind) (*Result, error) {
	var raw []byte
	mn := radix.MaybeNil{Rcv: &raw}
	if err := s.client.Do(radix.Cmd(&mn, "GET", resultKey(orderID, kind))); err != nil {
		return nil, err
	}
	if mn.Nil {
		return nil, nil
	}
	var r Result
	if err := jsoniter.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func resultKey(orderID int64, kind Kind) string {
	return fmt.Sprintf("notify:result:%d:%s", orderID, kind)
}
