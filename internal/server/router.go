package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/middleware"
	"github.com/example/goshop/internal/service"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRoutes 注册前台 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config, svc *Services) {
	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	api.Post("/register", func(ctx iris.Context) {
		var req service.RegisterRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err.Error())
			return
		}
		u, err := svc.Users.Register(ctx.Request().Context(), &req)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusCreated, u)
	})

	login := func(admin bool) iris.Handler {
		return func(ctx iris.Context) {
			var req credentials
			if err := ctx.ReadJSON(&req); err != nil {
				badRequest(ctx, err.Error())
				return
			}
			loginFn := svc.Users.Login
			if admin {
				loginFn = svc.Users.AdminLogin
			}
			token, u, err := loginFn(ctx.Request().Context(), req.Email, req.Password)
			if err != nil {
				fail(ctx, err)
				return
			}
			ok(ctx, iris.StatusOK, iris.Map{"token": token, "user": u})
		}
	}
	api.Post("/login", login(false))
	api.Post("/admin/login", login(true))

	// 商品列表，category 包含子分类，q 按名称过滤
	api.Get("/products", func(ctx iris.Context) {
		categoryID := ctx.URLParamInt64Default("category", 0)
		list, err := svc.Products.ListActive(ctx.Request().Context(), categoryID, ctx.URLParam("q"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, list)
	})

	authAPI := api.Party("/", authenticate(svc.Users, false))

	// 下单
	authAPI.Post("/orders", middleware.OrderRateLimit(&cfg.RateLimit), func(ctx iris.Context) {
		var req service.PlaceOrderRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err.Error())
			return
		}
		placed, err := svc.Orders.PlaceOrder(ctx.Request().Context(), currentUser(ctx).ID, &req)
		if err != nil {
			fail(ctx, err)
			return
		}
		resp := newOrderResponse(placed.Order)
		resp.Notifications = &placed.Notifications
		ok(ctx, iris.StatusCreated, resp)
	})

	authAPI.Get("/orders", func(ctx iris.Context) {
		list, err := svc.Orders.ListOrders(ctx.Request().Context(), currentUser(ctx), limitParam(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, newOrderList(list))
	})

	authAPI.Get("/orders/{id:int64}", func(ctx iris.Context) {
		o, err := svc.Orders.GetOrder(ctx.Request().Context(), currentUser(ctx), idParam(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, newOrderResponse(o))
	})
}
