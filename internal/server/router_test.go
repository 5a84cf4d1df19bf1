package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/httptest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/notify"
	"github.com/example/goshop/internal/repository/sqlstore"
	"github.com/example/goshop/internal/service"
	"github.com/example/goshop/internal/tasks"
)

type stubSender struct{}

func (stubSender) Send(_ context.Context, _ string, to []string) (*notify.SMSResponse, error) {
	resp := &notify.SMSResponse{}
	resp.SMSMessageData.Recipients = []notify.SMSRecipient{{Number: to[0], Status: "Success", MessageID: "ATXid_1"}}
	return resp, nil
}

type stubMailer struct{}

func (stubMailer) Send(context.Context, string, []string, string, string) error { return nil }

type stubDispatcher struct {
	mu     sync.Mutex
	orders []int64
}

func (d *stubDispatcher) Dispatch(_ context.Context, orderID int64) (tasks.Handles, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders = append(d.orders, orderID)
	return tasks.Handles{SMSTaskID: "sms-task", EmailTaskID: "email-task"}, nil
}

type testEnv struct {
	db         *gorm.DB
	svc        *Services
	dispatcher *stubDispatcher
	product    *product.Product
	customer   string
	admin      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.JWT = config.JWTConfig{Secret: "test", TTL: time.Hour}

	db, err := sqlstore.Open(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, sqlstore.Migrate(db))

	notifier := notify.NewNotifier(
		sqlstore.NewOrderRepository(db),
		notify.NewSMSService(stubSender{}, "254"),
		notify.NewEmailService(stubMailer{}, sqlstore.NewUserRepository(db), "shop@test.com"),
		notify.NewMemoryResultStore(),
	)
	d := &stubDispatcher{}
	svc := NewServices(db, cfg, notifier, d)

	_, err = svc.Users.Register(ctx, &service.RegisterRequest{Email: "customer@test.com", Password: "password123", FirstName: "John", PhoneNumber: "0712345678", Address: "Nairobi"})
	require.NoError(t, err)
	customer, _, err := svc.Users.Login(ctx, "customer@test.com", "password123")
	require.NoError(t, err)
	_, err = svc.Users.CreateAdmin(ctx, &service.RegisterRequest{Email: "admin@test.com", Password: "adminpass1"})
	require.NoError(t, err)
	admin, _, err := svc.Users.AdminLogin(ctx, "admin@test.com", "adminpass1")
	require.NoError(t, err)

	c := &category.Category{Name: "Electronics"}
	require.NoError(t, sqlstore.NewCategoryRepository(db).Create(ctx, c))
	p := &product.Product{Name: "Samsung S25", Price: decimal.RequireFromString("150000"), CategoryID: c.ID, StockQuantity: 10, IsActive: true}
	require.NoError(t, sqlstore.NewProductRepository(db).Create(ctx, p))

	return &testEnv{db: db, svc: svc, dispatcher: d, product: p, customer: customer, admin: admin}
}

func (env *testEnv) customerApp() *iris.Application {
	cfg := config.DefaultConfig()
	cfg.RateLimit.Capacity = 0
	app := iris.New()
	RegisterRoutes(app, cfg, env.svc)
	return app
}

func (env *testEnv) adminApp() *iris.Application {
	app := iris.New()
	RegisterAdminRoutes(app, env.svc)
	return app
}

func (env *testEnv) stock(t *testing.T) int64 {
	p, err := sqlstore.NewProductRepository(env.db).GetByID(context.Background(), env.product.ID)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestRoutes_PlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	e := httptest.New(t, env.customerApp())

	body := e.POST("/api/orders").
		WithHeader("Authorization", "Bearer "+env.customer).
		WithJSON(iris.Map{"items": []iris.Map{{"product": env.product.ID, "quantity": 2}}}).
		Expect().Status(httptest.StatusCreated).Body()
	body.Contains(`"total_amount":"300000.00"`)
	body.Contains(`"product_name":"Samsung S25"`)
	body.Contains(`"total_items":2`)
	body.Contains(`"sms_task_id":"sms-task"`)

	assert.Equal(t, int64(8), env.stock(t))
	assert.Len(t, env.dispatcher.orders, 1)

	e.GET("/api/orders").WithHeader("Authorization", env.customer).
		Expect().Status(httptest.StatusOK).Body().Contains(`"subtotal":"300000.00"`)
}

func TestRoutes_PlaceOrderErrors(t *testing.T) {
	env := newTestEnv(t)
	e := httptest.New(t, env.customerApp())

	e.POST("/api/orders").
		WithJSON(iris.Map{"items": []iris.Map{{"product": env.product.ID, "quantity": 1}}}).
		Expect().Status(httptest.StatusUnauthorized)

	e.POST("/api/orders").
		WithHeader("Authorization", "Bearer "+env.customer).
		WithJSON(iris.Map{"items": []iris.Map{{"product": env.product.ID, "quantity": 100}}}).
		Expect().Status(httptest.StatusBadRequest).
		Body().Contains("Insufficient stock for Samsung S25. Available: 10, Requested: 100")

	e.POST("/api/orders").
		WithHeader("Authorization", "Bearer "+env.customer).
		WithJSON(iris.Map{"items": []iris.Map{}}).
		Expect().Status(httptest.StatusBadRequest).
		Body().Contains("Order must have at least one item")

	e.POST("/api/orders").
		WithHeader("Authorization", "Bearer "+env.admin).
		WithJSON(iris.Map{"items": []iris.Map{{"product": env.product.ID, "quantity": 1}}}).
		Expect().Status(httptest.StatusForbidden)

	assert.Equal(t, int64(10), env.stock(t))
	assert.Empty(t, env.dispatcher.orders)
}

func TestRoutes_Auth(t *testing.T) {
	env := newTestEnv(t)
	e := httptest.New(t, env.customerApp())

	e.GET("/api/health").Expect().Status(httptest.StatusOK)

	e.POST("/api/register").
		WithJSON(iris.Map{"email": "new@test.com", "password": "password123"}).
		Expect().Status(httptest.StatusCreated).Body().NotContains("password123")
	e.POST("/api/register").
		WithJSON(iris.Map{"email": "new@test.com", "password": "password123"}).
		Expect().Status(httptest.StatusBadRequest)

	e.POST("/api/login").
		WithJSON(iris.Map{"email": "new@test.com", "password": "password123"}).
		Expect().Status(httptest.StatusOK).Body().Contains("token")
	e.POST("/api/login").
		WithJSON(iris.Map{"email": "new@test.com", "password": "nope"}).
		Expect().Status(httptest.StatusUnauthorized)
	e.POST("/api/admin/login").
		WithJSON(iris.Map{"email": "new@test.com", "password": "password123"}).
		Expect().Status(httptest.StatusForbidden)

	e.GET("/api/products").Expect().Status(httptest.StatusOK).Body().Contains("Samsung S25")
	e.GET("/api/products").WithQuery("q", "iphone").Expect().Status(httptest.StatusOK).Body().NotContains("Samsung S25")
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	placed, err := env.svc.Orders.PlaceOrder(context.Background(), mustCustomerID(t, env), &service.PlaceOrderRequest{
		Items: []service.ItemRequest{{ProductID: env.product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = env.svc.Notifier.NotifyCustomer(context.Background(), placed.Order.ID)
	require.NoError(t, err)

	e := httptest.New(t, env.adminApp())

	e.GET("/api/products").WithHeader("Authorization", env.customer).Expect().Status(httptest.StatusForbidden)
	e.GET("/api/products").WithHeader("Authorization", env.admin).Expect().Status(httptest.StatusOK)

	e.POST("/api/categories").WithHeader("Authorization", env.admin).
		WithJSON(iris.Map{"name": "Phones", "parent": env.product.CategoryID}).
		Expect().Status(httptest.StatusCreated)
	e.GET("/api/categories").WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusOK).Body().Contains(`"full_path"`).Contains("Phones")
	e.DELETE("/api/categories/{id}", env.product.CategoryID).WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusBadRequest)

	e.GET("/api/orders").WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusOK).Body().Contains(`"total":1`)
	e.GET("/api/orders/{id}", placed.Order.ID).WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusOK).Body().Contains(`"customer_name":"John"`)
	e.GET("/api/orders/{id}", 9999).WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusNotFound)
	e.GET("/api/orders/{id}/notifications", placed.Order.ID).WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusOK).Body().Contains(`"customer_sms"`)
	e.POST("/api/orders/{id}/notify", placed.Order.ID).WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusAccepted)
	assert.Len(t, env.dispatcher.orders, 2)

	e.GET("/api/monitor").WithHeader("Authorization", env.admin).
		Expect().Status(httptest.StatusOK).Body().Contains("notifications")
}

func mustCustomerID(t *testing.T, env *testEnv) int64 {
	u, err := env.svc.Users.Authenticate(context.Background(), env.customer)
	require.NoError(t, err)
	return u.ID
}
