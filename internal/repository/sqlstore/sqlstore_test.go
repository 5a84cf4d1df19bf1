package sqlstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	return conn
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int64) *product.Product {
	t.Helper()
	c := &category.Category{Name: "Electronics"}
	require.NoError(t, NewCategoryRepository(db).Create(context.Background(), c))
	p := &product.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		CategoryID:    c.ID,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), p))
	return p
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestProductRepo_DecrementStock(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProductRepository(db)
	p := seedProduct(t, db, "Samsung S25", "150000.00", 10)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 4))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.StockQuantity)

	err = repo.DecrementStock(ctx, p.ID, 7)
	assert.ErrorIs(t, err, product.ErrInsufficientStock)
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.StockQuantity, "failed decrement must not touch stock")

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 6))
	got, _ = repo.GetByID(ctx, p.ID)
	assert.Equal(t, int64(0), got.StockQuantity)
}

func TestProductRepo_Lookup(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProductRepository(db)
	p1 := seedProduct(t, db, "Samsung S25", "150000.00", 10)
	p2 := seedProduct(t, db, "Macbook Pro", "250000.00", 5)

	found, err := repo.GetByIDs(ctx, []int64{p1.ID, p2.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.True(t, found[p2.ID].Price.Equal(decimal.RequireFromString("250000")))

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, product.ErrNotFound)

	locked, err := repo.GetForUpdate(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Samsung S25", locked.Name)

	assert.ErrorIs(t, repo.Delete(ctx, 9999), product.ErrNotFound)
}

func TestUserRepo_ContactDefaultsAndAdmins(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	customer := &user.User{Email: "customer@test.com", UserType: user.TypeCustomer, PhoneNumber: "+254700000000", Address: "Nairobi", IsActive: true}
	require.NoError(t, repo.Create(ctx, customer))
	require.NoError(t, repo.Create(ctx, &user.User{Email: "admin@test.com", UserType: user.TypeAdmin, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &user.User{Email: "old-admin@test.com", UserType: user.TypeAdmin, IsActive: false}))

	emails, err := repo.ListActiveAdminEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@test.com"}, emails)

	phone := "+254722222222"
	require.NoError(t, repo.SetContactDefaults(ctx, customer.ID, &phone, nil))
	got, err := repo.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, phone, got.PhoneNumber)
	assert.Equal(t, "Nairobi", got.Address, "address untouched when nil")

	_, err = repo.GetByEmail(ctx, "nobody@test.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestOrderRepo_GetByIDPreloadsDetails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	orders := NewOrderRepository(db)

	customer := &user.User{Email: "customer@test.com", FirstName: "John", UserType: user.TypeCustomer, IsActive: true}
	require.NoError(t, users.Create(ctx, customer))
	p := seedProduct(t, db, "Samsung S25", "150000.00", 10)

	o := &order.Order{CustomerID: customer.ID, Status: order.StatusPending, TotalAmount: decimal.Zero}
	require.NoError(t, orders.Create(ctx, o))
	require.NoError(t, orders.AddItem(ctx, &order.Item{OrderID: o.ID, ProductID: p.ID, Quantity: 2, Price: p.Price}))
	require.NoError(t, orders.UpdateTotal(ctx, o.ID, decimal.RequireFromString("300000")))

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.Customer.FirstName)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Samsung S25", got.Items[0].Product.Name)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("300000.00")))
	assert.Equal(t, int64(2), got.TotalItems())

	err = orders.AddItem(ctx, &order.Item{OrderID: o.ID, ProductID: p.ID, Quantity: 1, Price: p.Price})
	assert.Error(t, err, "a product appears at most once per order")

	_, err = orders.GetByID(ctx, 404)
	assert.ErrorIs(t, err, order.ErrNotFound)

	list, err := orders.ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
