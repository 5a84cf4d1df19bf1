package service

import (
	"context"
	"strings"

	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/product"
)

var (
	ErrCategoryCycle    = invalidInput("a category cannot be its own ancestor")
	ErrCategoryNotEmpty = invalidInput("category still has subcategories or products")
)

// CategoryService 分类管理，分类为树形结构
type CategoryService struct {
	repo     category.Repository
	products product.Repository
}

func NewCategoryService(repo category.Repository, products product.Repository) *CategoryService {
	return &CategoryService{repo: repo, products: products}
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*category.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]*category.Category, error) {
	return s.repo.ListAll(ctx)
}

// FullPath 返回 "父 > 子" 形式的完整路径
func (s *CategoryService) FullPath(ctx context.Context, c *category.Category) (string, error) {
	names := []string{c.Name}
	seen := map[int64]struct{}{c.ID: {}}
	for parent := c.ParentID; parent != nil; {
		if _, ok := seen[*parent]; ok {
			return "", ErrCategoryCycle
		}
		p, err := s.repo.GetByID(ctx, *parent)
		if err != nil {
			return "", err
		}
		seen[p.ID] = struct{}{}
		names = append([]string{p.Name}, names...)
		parent = p.ParentID
	}
	return strings.Join(names, " > "), nil
}

// Descendants 返回分类自身及全部子孙分类 ID
func (s *CategoryService) Descendants(ctx context.Context, id int64) ([]int64, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	ids := []int64{id}
	seen := map[int64]struct{}{id: {}}
	for i := 0; i < len(ids); i++ {
		children, err := s.repo.Children(ctx, ids[i])
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (s *CategoryService) Create(ctx context.Context, name string, parentID *int64) (*category.Category, error) {
	c := &category.Category{Name: strings.TrimSpace(name), ParentID: parentID}
	if c.Name == "" {
		return nil, invalidInput("category name is required")
	}
	if parentID != nil {
		if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update 修改名称与父分类，父分类不能是自身或自身的子孙
func (s *CategoryService) Update(ctx context.Context, id int64, name string, parentID *int64) (*category.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	if parentID != nil {
		desc, err := s.Descendants(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, d := range desc {
			if d == *parentID {
				return nil, ErrCategoryCycle
			}
		}
		if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
			return nil, err
		}
	}
	c.ParentID = parentID
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete 仍有子分类或商品时拒绝删除
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	children, err := s.repo.Children(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return ErrCategoryNotEmpty
	}
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryNotEmpty
	}
	return s.repo.Delete(ctx, id)
}
