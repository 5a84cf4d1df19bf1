package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/goshop/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储，db 可以是事务句柄
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, product.ErrNotFound)
	}
	return &p, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*product.Product, error) {
	out := make(map[int64]*product.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []*product.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error; err != nil {
		return nil, notFound(err, product.ErrNotFound)
	}
	return &p, nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Order("name").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListActive(ctx context.Context, categoryIDs []int64) ([]*product.Product, error) {
	var list []*product.Product
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if len(categoryIDs) > 0 {
		query = query.Where("category_id IN ?", categoryIDs)
	}
	if err := query.Order("name").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("category_id = ?", categoryID).
		Count(&n).Error
	return n, err
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&product.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}
