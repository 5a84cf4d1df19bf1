package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/monitor"
)

// Notifier 按订单 ID 加载订单并发送通知，可重复调用
type Notifier struct {
	orders  order.Repository
	sms     *SMSService
	email   *EmailService
	results ResultStore
}

func NewNotifier(orders order.Repository, sms *SMSService, email *EmailService, results ResultStore) *Notifier {
	if results == nil {
		results = NewMemoryResultStore()
	}
	return &Notifier{orders: orders, sms: sms, email: email, results: results}
}

// NotifyCustomer 只有订单不存在或查询失败时返回 error
func (n *Notifier) NotifyCustomer(ctx context.Context, orderID int64) (*Result, error) {
	o, err := n.orders.GetByID(ctx, orderID)
	if err != nil {
		zap.L().Error("load order for sms failed", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, err
	}
	r := n.sms.SendOrderConfirmation(ctx, o)
	monitor.Get().RecordSMS(r.Success)
	n.save(ctx, r)
	return r, nil
}

// NotifyAdmins 只有订单不存在或查询失败时返回 error
func (n *Notifier) NotifyAdmins(ctx context.Context, orderID int64) (*Result, error) {
	o, err := n.orders.GetByID(ctx, orderID)
	if err != nil {
		zap.L().Error("load order for admin email failed", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, err
	}
	r := n.email.SendAdminNotification(ctx, o)
	monitor.Get().RecordEmail(r.Success)
	n.save(ctx, r)
	return r, nil
}

// Results 读取订单两类通知的最近结果
func (n *Notifier) Results(ctx context.Context, orderID int64) (map[Kind]*Result, error) {
	out := make(map[Kind]*Result, 2)
	for _, k := range []Kind{KindCustomerSMS, KindAdminEmail} {
		r, err := n.results.Get(ctx, orderID, k)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out[k] = r
		}
	}
	return out, nil
}

func (n *Notifier) save(ctx context.Context, r *Result) {
	if err := n.results.Save(ctx, r); err != nil {
		zap.L().Warn("save notification result failed", zap.Int64("order_id", r.OrderID), zap.String("kind", string(r.Kind)), zap.Error(err))
	}
}
