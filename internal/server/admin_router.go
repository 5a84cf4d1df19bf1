package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/goshop/internal/monitor"
	"github.com/example/goshop/internal/service"
)

type categoryRequest struct {
	Name   string `json:"name"`
	Parent *int64 `json:"parent"`
}

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由，所有接口都需要管理员 token
// 端口通常是 8081，与前台 Web 服务分离。
func RegisterAdminRoutes(app *iris.Application, svc *Services) {
	api := app.Party("/api")

	api.Post("/login", func(ctx iris.Context) {
		var req credentials
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err.Error())
			return
		}
		token, u, err := svc.Users.AdminLogin(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, iris.Map{"token": token, "user": u})
	})

	admin := api.Party("/", authenticate(svc.Users, true))

	// ---------- 商品管理 ----------

	admin.Get("/products", func(ctx iris.Context) {
		list, err := svc.Products.ListAll(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, list)
	})

	admin.Post("/products", func(ctx iris.Context) {
		var req service.ProductInput
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err.Error())
			return
		}
		p, err := svc.Products.Create(ctx.Request().Context(), &req)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusCreated, p)
	})

	admin.Put("/products/{id:int64}", func(ctx iris.Context) {
		var req service.ProductInput
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err.Error())
			return
		}
		p, err := svc.Products.Update(ctx.Request().Context(), idParam(ctx), &req)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, p)
	})

	admin.Delete("/products/{id:int64}", func(ctx iris.Context) {
		if err := svc.Products.Delete(ctx.Request().Context(), idParam(ctx)); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, nil)
	})

	// ---------- 分类管理 ----------

	admin.Get("/categories", func(ctx iris.Context) {
		list, err := svc.Categories.List(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		out := make([]iris.Map, 0, len(list))
		for _, c := range list {
			path, err := svc.Categories.FullPath(ctx.Request().Context(), c)
			if err != nil {
				fail(ctx, err)
				return
			}
			out = append(out, iris.Map{"id": c.ID, "name": c.Name, "parent": c.ParentID, "full_path": path})
		}
		ok(ctx, iris.StatusOK, out)
	})

	admin.Post("/categories", func(ctx iris.Context) {
		var req categoryRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err.Error())
			return
		}
		c, err := svc.Categories.Create(ctx.Request().Context(), req.Name, req.Parent)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusCreated, c)
	})

	admin.Put("/categories/{id:int64}", func(ctx iris.Context) {
		var req categoryRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err.Error())
			return
		}
		c, err := svc.Categories.Update(ctx.Request().Context(), idParam(ctx), req.Name, req.Parent)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, c)
	})

	admin.Delete("/categories/{id:int64}", func(ctx iris.Context) {
		if err := svc.Categories.Delete(ctx.Request().Context(), idParam(ctx)); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, nil)
	})

	// ---------- 订单管理 ----------

	admin.Get("/orders", func(ctx iris.Context) {
		list, err := svc.Orders.ListOrders(ctx.Request().Context(), currentUser(ctx), limitParam(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		total, err := svc.Orders.CountOrders(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, iris.Map{"total": total, "orders": newOrderList(list)})
	})

	admin.Get("/orders/{id:int64}", func(ctx iris.Context) {
		o, err := svc.Orders.GetOrder(ctx.Request().Context(), currentUser(ctx), idParam(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, newOrderResponse(o))
	})

	// 最近一次短信 / 邮件通知结果
	admin.Get("/orders/{id:int64}/notifications", func(ctx iris.Context) {
		o, err := svc.Orders.GetOrder(ctx.Request().Context(), currentUser(ctx), idParam(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		results, err := svc.Notifier.Results(ctx.Request().Context(), o.ID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusOK, results)
	})

	// 重新投递通知
	admin.Post("/orders/{id:int64}/notify", func(ctx iris.Context) {
		handles, err := svc.Orders.ResendNotifications(ctx.Request().Context(), idParam(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.StatusAccepted, handles)
	})

	admin.Get("/monitor", func(ctx iris.Context) {
		ok(ctx, iris.StatusOK, monitor.Get().GetStats())
	})
}
