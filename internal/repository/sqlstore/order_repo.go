package sqlstore

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/goshop/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *orderRepo) AddItem(ctx context.Context, it *order.Item) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(it).Error
}

func (r *orderRepo) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", id).
		Update("total_amount", total).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.withDetails(ctx).First(&o, id).Error; err != nil {
		return nil, notFound(err, order.ErrNotFound)
	}
	return &o, nil
}

func (r *orderRepo) ListByCustomer(ctx context.Context, customerID int64) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.withDetails(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.withDetails(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&n).Error
	return n, err
}

func (r *orderRepo) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Preload("Items.Product")
}
