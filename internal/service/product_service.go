package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/product"
)

// ProductInput 后台创建/修改商品
type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    int64           `json:"category"`
	StockQuantity int64           `json:"stock_quantity"`
	IsActive      *bool           `json:"is_active"`
}

type ProductService struct {
	repo       product.Repository
	categories *CategoryService
}

func NewProductService(repo product.Repository, categories *CategoryService) *ProductService {
	return &ProductService{repo: repo, categories: categories}
}

// ListActive 上架商品，categoryID 非 0 时包含其全部子分类，q 按名称过滤
func (s *ProductService) ListActive(ctx context.Context, categoryID int64, q string) ([]*product.Product, error) {
	var ids []int64
	if categoryID != 0 {
		var err error
		if ids, err = s.categories.Descendants(ctx, categoryID); err != nil {
			return nil, err
		}
	}
	list, err := s.repo.ListActive(ctx, ids)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return list, nil
	}
	filtered := list[:0]
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.Name), q) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, in *ProductInput) (*product.Product, error) {
	p := &product.Product{IsActive: true}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, in *ProductInput) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) apply(ctx context.Context, p *product.Product, in *ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalidInput("product name is required")
	}
	if in.Price.IsNegative() {
		return invalidInput("price must not be negative")
	}
	if in.StockQuantity < 0 {
		return invalidInput("stock quantity must not be negative")
	}
	if _, err := s.categories.Get(ctx, in.CategoryID); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return invalidInput("category does not exist")
		}
		return err
	}
	p.Name = name
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.CategoryID = in.CategoryID
	p.StockQuantity = in.StockQuantity
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}
