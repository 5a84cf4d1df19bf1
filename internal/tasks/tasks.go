package tasks

import (
	"context"
	"errors"

	"github.com/example/goshop/internal/notify"
)

// 任务名，RabbitMQ 消息的 Type 字段
const (
	TaskCustomerSMS = "orders.send_customer_sms"
	TaskAdminEmail  = "orders.send_admin_email"
)

var ErrUnknownTask = errors.New("unknown task")

// Payload 任务参数，只携带订单 ID，执行时重新加载订单
type Payload struct {
	OrderID int64 `json:"order_id"`
}

// Queue 任务投递
type Queue interface {
	// Enqueue 返回任务句柄
	Enqueue(ctx context.Context, task string, p Payload) (string, error)
}

// Handles 一次下单投递的两个任务句柄，投递失败的为空
type Handles struct {
	SMSTaskID   string `json:"sms_task_id"`
	EmailTaskID string `json:"email_task_id"`
}

// Handler 任务处理函数
type Handler func(ctx context.Context, p Payload) (*notify.Result, error)

// Handlers 任务名到处理函数的映射
func Handlers(n *notify.Notifier) map[string]Handler {
	return map[string]Handler{
		TaskCustomerSMS: func(ctx context.Context, p Payload) (*notify.Result, error) {
			return n.NotifyCustomer(ctx, p.OrderID)
		},
		TaskAdminEmail: func(ctx context.Context, p Payload) (*notify.Result, error) {
			return n.NotifyAdmins(ctx, p.OrderID)
		},
	}
}

// Run 执行指定任务
func Run(ctx context.Context, handlers map[string]Handler, task string, p Payload) (*notify.Result, error) {
	h, ok := handlers[task]
	if !ok {
		return nil, ErrUnknownTask
	}
	return h(ctx, p)
}
