package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/repository/sqlstore"
	"github.com/example/goshop/internal/tasks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := sqlstore.Open(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, sqlstore.Migrate(conn))
	return conn
}

type fixture struct {
	db       *gorm.DB
	category *category.Category
	customer *user.User
	admin    *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	users := sqlstore.NewUserRepository(db)

	customer := &user.User{
		Email:       "customer@test.com",
		FirstName:   "John",
		LastName:    "Doe",
		UserType:    user.TypeCustomer,
		PhoneNumber: "+254712345678",
		Address:     "Nairobi",
		IsActive:    true,
	}
	require.NoError(t, users.Create(ctx, customer))
	admin := &user.User{Email: "admin@test.com", UserType: user.TypeAdmin, IsActive: true}
	require.NoError(t, users.Create(ctx, admin))

	c := &category.Category{Name: "Electronics"}
	require.NoError(t, sqlstore.NewCategoryRepository(db).Create(ctx, c))
	return &fixture{db: db, category: c, customer: customer, admin: admin}
}

func (f *fixture) product(t *testing.T, name, price string, stock int64) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		CategoryID:    f.category.ID,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, sqlstore.NewProductRepository(f.db).Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := sqlstore.NewProductRepository(f.db).GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	n, err := sqlstore.NewOrderRepository(f.db).Count(context.Background())
	require.NoError(t, err)
	return n
}

// recordingDispatcher 记录被投递的订单 ID
type recordingDispatcher struct {
	mu     sync.Mutex
	orders []int64
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, orderID int64) (tasks.Handles, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders = append(d.orders, orderID)
	if d.err != nil {
		return tasks.Handles{}, d.err
	}
	return tasks.Handles{SMSTaskID: "sms-1", EmailTaskID: "email-1"}, nil
}

func (d *recordingDispatcher) dispatched() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), d.orders...)
}
