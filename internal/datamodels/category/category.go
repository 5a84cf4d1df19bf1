package category

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("category not found")

// Category 商品分类，ParentID 为空表示顶级分类
type Category struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	ParentID  *int64    `gorm:"index" json:"parent"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 与商品表保持复数命名
func (Category) TableName() string {
	return "categories"
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
	ListAll(ctx context.Context) ([]*Category, error)
	Children(ctx context.Context, id int64) ([]*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
}
