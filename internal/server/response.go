package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/service"
)

func ok(ctx iris.Context, status int, data interface{}) {
	ctx.StatusCode(status)
	_ = ctx.JSON(iris.Map{"code": 0, "msg": "ok", "data": data})
}

// fail 把服务层错误映射为 HTTP 状态码
func fail(ctx iris.Context, err error) {
	var (
		verrs    *service.ValidationErrors
		conflict *service.ConflictError
	)
	switch {
	case errors.As(err, &verrs):
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "order validation failed", "errors": verrs.Errors})
	case errors.As(err, &conflict):
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
			"code":      iris.StatusBadRequest,
			"msg":       conflict.Error(),
			"retryable": conflict.Retryable(),
			"errors": []service.FieldError{{
				Kind:        service.KindInsufficientStock,
				Field:       "items",
				Message:     conflict.Error(),
				ProductID:   conflict.ProductID,
				ProductName: conflict.ProductName,
			}},
		})
	case errors.Is(err, service.ErrInvalidInput):
		badRequest(ctx, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"code": iris.StatusUnauthorized, "msg": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		ctx.StopWithJSON(iris.StatusForbidden, iris.Map{"code": iris.StatusForbidden, "msg": err.Error()})
	case service.IsNotFound(err):
		ctx.StopWithJSON(iris.StatusNotFound, iris.Map{"code": iris.StatusNotFound, "msg": err.Error()})
	default:
		zap.L().Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
		ctx.StopWithJSON(iris.StatusInternalServerError, iris.Map{"code": iris.StatusInternalServerError, "msg": "internal server error"})
	}
}

func badRequest(ctx iris.Context, msg string) {
	ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": msg})
}

const userKey = "user"

// authenticate 解析 Authorization 头（支持 Bearer 前缀）并把当前用户放入上下文
func authenticate(users *service.UserService, adminOnly bool) iris.Handler {
	return func(ctx iris.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"code": iris.StatusUnauthorized, "msg": "missing token"})
			return
		}
		u, err := users.Authenticate(ctx.Request().Context(), token)
		if err != nil {
			fail(ctx, err)
			return
		}
		if adminOnly && !u.IsAdmin() {
			fail(ctx, service.ErrForbidden)
			return
		}
		ctx.Values().Set(userKey, u)
		ctx.Next()
	}
}

func currentUser(ctx iris.Context) *user.User {
	u, _ := ctx.Values().Get(userKey).(*user.User)
	return u
}

func idParam(ctx iris.Context) int64 {
	id, _ := ctx.Params().GetInt64("id")
	return id
}

func limitParam(ctx iris.Context) int {
	limit, err := strconv.Atoi(ctx.URLParamDefault("limit", "20"))
	if err != nil || limit <= 0 {
		return 20
	}
	return limit
}
