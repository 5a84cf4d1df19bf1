package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/monitor"
	"github.com/example/goshop/internal/repository/sqlstore"
	"github.com/example/goshop/internal/tasks"
)

// NotificationDispatcher 订单提交后投递通知任务
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, orderID int64) (tasks.Handles, error)
}

// OrderService 下单与订单查询
type OrderService struct {
	db         *gorm.DB
	users      user.Repository
	orders     order.Repository
	validator  *OrderValidator
	dispatcher NotificationDispatcher
}

// NewOrderService 创建订单服务，dispatcher 可以为 nil
func NewOrderService(db *gorm.DB, dispatcher NotificationDispatcher) *OrderService {
	return &OrderService{
		db:         db,
		users:      sqlstore.NewUserRepository(db),
		orders:     sqlstore.NewOrderRepository(db),
		validator:  NewOrderValidator(sqlstore.NewProductRepository(db)),
		dispatcher: dispatcher,
	}
}

// PlacedOrder 下单结果，Notifications 为已投递的任务句柄
type PlacedOrder struct {
	Order         *order.Order
	Notifications tasks.Handles
}

// PlaceOrder 校验、落库并投递通知
func (s *OrderService) PlaceOrder(ctx context.Context, customerID int64, req *PlaceOrderRequest) (*PlacedOrder, error) {
	m := monitor.Get()
	m.RecordOrderRequest()

	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive || !customer.IsCustomer() {
		return nil, ErrForbidden
	}

	validated, err := s.validator.Validate(ctx, customer, req)
	if err != nil {
		var verrs *ValidationErrors
		if errors.As(err, &verrs) {
			m.RecordOrderRejected()
			zap.L().Warn("order rejected", zap.Int64("customer_id", customerID), zap.Int("errors", len(verrs.Errors)))
		} else {
			m.RecordDBError()
		}
		return nil, err
	}

	o, err := s.Execute(ctx, validated)
	if err != nil {
		var (
			conflict *ConflictError
			verrs    *ValidationErrors
		)
		if errors.As(err, &verrs) {
			m.RecordOrderRejected()
			zap.L().Warn("order rejected at commit", zap.Int64("customer_id", customerID), zap.Error(err))
		} else if errors.As(err, &conflict) {
			m.RecordOrderConflict()
			zap.L().Warn("order conflict",
				zap.Int64("customer_id", customerID),
				zap.Int64("product_id", conflict.ProductID),
				zap.Int64("requested", conflict.Requested))
		} else {
			m.RecordDBError()
			zap.L().Error("place order failed", zap.Int64("customer_id", customerID), zap.Error(err))
		}
		return nil, err
	}
	m.RecordOrderPlaced()
	zap.L().Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.Int64("customer_id", customerID),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)))

	placed := &PlacedOrder{Order: o}
	if s.dispatcher != nil {
		handles, err := s.dispatcher.Dispatch(ctx, o.ID)
		if err != nil {
			zap.L().Error("dispatch notifications failed", zap.Int64("order_id", o.ID), zap.Error(err))
		}
		placed.Notifications = handles
	}
	return placed, nil
}

// Execute 在单个事务内创建订单、写入明细并扣减库存，任一步失败整体回滚
func (s *OrderService) Execute(ctx context.Context, v *ValidatedOrder) (*order.Order, error) {
	o := &order.Order{
		CustomerID:      v.Customer.ID,
		Status:          order.StatusPending,
		TotalAmount:     decimal.Zero,
		CustomerEmail:   v.Email,
		CustomerPhone:   v.Phone,
		DeliveryAddress: v.Address,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := sqlstore.NewProductRepository(tx)
		orders := sqlstore.NewOrderRepository(tx)

		if err := orders.Create(ctx, o); err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]order.Item, 0, len(v.Items))
		for i, vi := range v.Items {
			// 加锁重新读取，价格以提交时为准
			p, err := products.GetForUpdate(ctx, vi.Product.ID)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return &ValidationErrors{Errors: []FieldError{{
					Kind:        KindProductUnavailable,
					Field:       fmt.Sprintf("items[%d].product", i),
					Message:     fmt.Sprintf("%s is no longer available", p.Name),
					ProductID:   p.ID,
					ProductName: p.Name,
				}}}
			}
			it := order.Item{
				OrderID:   o.ID,
				ProductID: p.ID,
				Product:   *p,
				Quantity:  vi.Quantity,
				Price:     p.Price,
			}
			if err := orders.AddItem(ctx, &it); err != nil {
				return err
			}
			if err := products.DecrementStock(ctx, p.ID, vi.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return &ConflictError{ProductID: p.ID, ProductName: p.Name, Requested: vi.Quantity}
				}
				return err
			}
			it.Product.StockQuantity -= vi.Quantity
			total = total.Add(it.Subtotal())
			items = append(items, it)
		}

		if err := orders.UpdateTotal(ctx, o.ID, total); err != nil {
			return err
		}
		o.TotalAmount = total
		o.Items = items

		if v.SaveAsDefault {
			return saveContactDefaults(ctx, sqlstore.NewUserRepository(tx), v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.Customer = *v.Customer
	return o, nil
}

// saveContactDefaults 只写入与资料不同的字段
func saveContactDefaults(ctx context.Context, users user.Repository, v *ValidatedOrder) error {
	current, err := users.GetByID(ctx, v.Customer.ID)
	if err != nil {
		return err
	}
	var phone, address *string
	if v.Phone != current.PhoneNumber {
		phone = &v.Phone
	}
	if v.Address != current.Address {
		address = &v.Address
	}
	if phone == nil && address == nil {
		return nil
	}
	if err := users.SetContactDefaults(ctx, current.ID, phone, address); err != nil {
		return err
	}
	if phone != nil {
		v.Customer.PhoneNumber = *phone
	}
	if address != nil {
		v.Customer.Address = *address
	}
	return nil
}

// GetOrder 顾客只能查看自己的订单
func (s *OrderService) GetOrder(ctx context.Context, requester *user.User, id int64) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && o.CustomerID != requester.ID {
		return nil, order.ErrNotFound
	}
	return o, nil
}

// ListOrders 顾客返回自己的订单，管理员返回最近的订单
func (s *OrderService) ListOrders(ctx context.Context, requester *user.User, limit int) ([]*order.Order, error) {
	if requester.IsAdmin() {
		return s.orders.ListRecent(ctx, limit)
	}
	return s.orders.ListByCustomer(ctx, requester.ID)
}

// CountOrders 订单总数
func (s *OrderService) CountOrders(ctx context.Context) (int64, error) {
	return s.orders.Count(ctx)
}

// ResendNotifications 重新投递某个订单的通知
func (s *OrderService) ResendNotifications(ctx context.Context, orderID int64) (tasks.Handles, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return tasks.Handles{}, err
	}
	if s.dispatcher == nil {
		return tasks.Handles{}, errors.New("notification dispatcher not configured")
	}
	return s.dispatcher.Dispatch(ctx, orderID)
}
