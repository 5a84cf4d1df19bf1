package product

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product 商品模型
type Product struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID    int64           `gorm:"index;not null" json:"category_id"`
	StockQuantity int64           `gorm:"not null" json:"stock_quantity"` // 不允许为负
	IsActive      bool            `gorm:"index;not null" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	// GetByIDs 按 ID 批量查询，不存在的 ID 不会出现在结果中
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error)
	// GetForUpdate 加行锁读取，只能在事务内使用
	GetForUpdate(ctx context.Context, id int64) (*Product, error)
	// DecrementStock 条件扣减，扣减后库存为负时返回 ErrInsufficientStock 且不做修改
	DecrementStock(ctx context.Context, id, qty int64) error
	ListAll(ctx context.Context) ([]*Product, error)
	ListActive(ctx context.Context, categoryIDs []int64) ([]*Product, error)
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
