package server

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/infra/redis"
	"github.com/example/goshop/internal/notify"
	"github.com/example/goshop/internal/repository/sqlstore"
	"github.com/example/goshop/internal/service"
	"github.com/example/goshop/internal/tasks"
)

// Services 路由依赖的全部服务
type Services struct {
	Users      *service.UserService
	Products   *service.ProductService
	Categories *service.CategoryService
	Orders     *service.OrderService
	Notifier   *notify.Notifier
}

// NewServices 基于数据库连接组装服务，dispatcher 为 nil 时下单不投递通知
func NewServices(db *gorm.DB, cfg *config.Config, notifier *notify.Notifier, dispatcher service.NotificationDispatcher) *Services {
	products := sqlstore.NewProductRepository(db)
	categories := service.NewCategoryService(sqlstore.NewCategoryRepository(db), products)
	return &Services{
		Users:      service.NewUserService(sqlstore.NewUserRepository(db), &cfg.JWT),
		Products:   service.NewProductService(products, categories),
		Categories: categories,
		Orders:     service.NewOrderService(db, dispatcher),
		Notifier:   notifier,
	}
}

// NewNotifier 组装短信、邮件与结果存储，Redis 未配置时结果保存在进程内
func NewNotifier(cfg *config.Config, db *gorm.DB) *notify.Notifier {
	var results notify.ResultStore
	if cfg.Redis.Addr != "" {
		results = notify.NewRedisResultStore(redis.Init(&cfg.Redis), cfg.Notify.ResultTTL)
	} else {
		results = notify.NewMemoryResultStore()
	}
	return notify.NewNotifier(
		sqlstore.NewOrderRepository(db),
		notify.NewSMSService(notify.NewAfricasTalkingClient(&cfg.SMS), cfg.SMS.CountryCode),
		notify.NewEmailService(notify.NewSMTPMailer(&cfg.Mail), sqlstore.NewUserRepository(db), cfg.Mail.From),
		results,
	)
}

// Bootstrap 初始化基础设施并返回服务，cleanup 在进程退出时调用
func Bootstrap(cfg *config.Config) (*Services, func(), error) {
	db := sqlstore.Init(&cfg.Database)
	notifier := NewNotifier(cfg, db)

	var (
		queue   tasks.Queue
		cleanup = func() {}
	)
	switch cfg.Notify.Backend {
	case "rabbitmq":
		pub, err := mq.NewTaskPublisher(mq.Init(&cfg.RabbitMQ), cfg.Notify.Queue)
		if err != nil {
			return nil, nil, err
		}
		queue = pub
		cleanup = func() { _ = pub.Close() }
	case "", "local":
		local, err := tasks.NewLocalQueue(cfg.Notify.PoolSize, tasks.Handlers(notifier))
		if err != nil {
			return nil, nil, err
		}
		queue = local
		cleanup = local.Release
	default:
		return nil, nil, errors.Errorf("unsupported notify backend %q", cfg.Notify.Backend)
	}
	zap.L().Info("notification backend ready", zap.String("backend", cfg.Notify.Backend))

	return NewServices(db, cfg, notifier, tasks.NewDispatcher(queue)), cleanup, nil
}
