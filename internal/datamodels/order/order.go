package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
)

// Status 订单状态：pending -> confirmed -> shipped -> delivered，或 cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var ErrNotFound = errors.New("order not found")

// Order 订单模型
// TotalAmount 在下单事务内计算写入，之后不再根据商品重新计算；
// CustomerEmail / CustomerPhone / DeliveryAddress 为下单时的快照。
type Order struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	CustomerID      int64           `gorm:"index;not null" json:"customer_id"`
	Customer        user.User       `gorm:"foreignKey:CustomerID" json:"-"`
	Status          Status          `gorm:"size:20;index;not null" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	CustomerEmail   string          `gorm:"size:254" json:"customer_email"`
	CustomerPhone   string          `gorm:"size:15" json:"customer_phone"`
	DeliveryAddress string          `gorm:"type:text" json:"delivery_address"`
	Items           []Item          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TotalItems 订单商品总件数
func (o *Order) TotalItems() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Item 订单明细，Price 为下单时的商品单价快照
type Item struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	OrderID   int64           `gorm:"not null;uniqueIndex:idx_order_product" json:"-"`
	ProductID int64           `gorm:"not null;uniqueIndex:idx_order_product;index" json:"product"`
	Product   product.Product `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (Item) TableName() string {
	return "order_items"
}

// Subtotal = Quantity * Price
func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}

// Repository 订单仓储接口
type Repository interface {
	// Create 只写订单本身，不级联写明细与关联
	Create(ctx context.Context, o *Order) error
	AddItem(ctx context.Context, it *Item) error
	UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error
	// GetByID 预加载 Customer 与 Items.Product
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	Count(ctx context.Context) (int64, error)
}
