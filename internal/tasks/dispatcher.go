package tasks

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/monitor"
)

// Dispatcher 订单提交后分别投递短信与邮件任务，一个失败不影响另一个
type Dispatcher struct {
	queue Queue
}

func NewDispatcher(queue Queue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// Dispatch 返回成功投递的句柄，以及合并后的投递错误
func (d *Dispatcher) Dispatch(ctx context.Context, orderID int64) (Handles, error) {
	var (
		h    Handles
		errs error
	)
	p := Payload{OrderID: orderID}

	id, err := d.queue.Enqueue(ctx, TaskCustomerSMS, p)
	monitor.Get().RecordEnqueue(err)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		h.SMSTaskID = id
	}

	id, err = d.queue.Enqueue(ctx, TaskAdminEmail, p)
	monitor.Get().RecordEnqueue(err)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		h.EmailTaskID = id
	}

	zap.L().Info("notification tasks queued",
		zap.Int64("order_id", orderID),
		zap.String("sms_task_id", h.SMSTaskID),
		zap.String("email_task_id", h.EmailTaskID),
		zap.Error(errs))
	return h, errs
}
