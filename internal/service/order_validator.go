package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
)

// maxPhoneLen 与 orders.customer_phone 列宽一致
const maxPhoneLen = 15

// ItemRequest 下单商品
type ItemRequest struct {
	ProductID int64 `json:"product"`
	Quantity  int64 `json:"quantity"`
}

// PlaceOrderRequest 下单请求，联系方式为空时回落到用户资料
type PlaceOrderRequest struct {
	Items           []ItemRequest `json:"items"`
	CustomerEmail   string        `json:"customer_email"`
	CustomerPhone   string        `json:"customer_phone"`
	DeliveryAddress string        `json:"delivery_address"`
	SaveAsDefault   bool          `json:"save_as_default"`
}

// ValidatedItem 通过校验的明细
type ValidatedItem struct {
	Product  *product.Product
	Quantity int64
}

// ValidatedOrder 校验通过、联系方式已确定的下单请求
type ValidatedOrder struct {
	Customer      *user.User
	Items         []ValidatedItem
	Email         string
	Phone         string
	Address       string
	SaveAsDefault bool
}

// OrderValidator 下单前置校验，错误会全部收集后一起返回
type OrderValidator struct {
	products product.Repository
}

func NewOrderValidator(products product.Repository) *OrderValidator {
	return &OrderValidator{products: products}
}

// Validate 返回 *ValidationErrors 或存储层错误
func (v *OrderValidator) Validate(ctx context.Context, customer *user.User, req *PlaceOrderRequest) (*ValidatedOrder, error) {
	errs := &ValidationErrors{}

	if len(req.Items) == 0 {
		errs.add(FieldError{
			Kind:    KindEmptyOrder,
			Field:   "items",
			Message: "Order must have at least one item",
		})
	}

	ids := make([]int64, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := v.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]ValidatedItem, 0, len(req.Items))
	seen := make(map[int64]struct{}, len(req.Items))
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)

		if it.Quantity <= 0 {
			errs.add(FieldError{
				Kind:      KindInvalidQuantity,
				Field:     field + ".quantity",
				Message:   "Quantity must be greater than 0",
				ProductID: it.ProductID,
			})
		}

		if _, dup := seen[it.ProductID]; dup {
			errs.add(FieldError{
				Kind:      KindDuplicateProduct,
				Field:     field + ".product",
				Message:   fmt.Sprintf("Product %d appears more than once in the order", it.ProductID),
				ProductID: it.ProductID,
			})
			continue
		}
		seen[it.ProductID] = struct{}{}

		p, ok := products[it.ProductID]
		if !ok {
			errs.add(FieldError{
				Kind:      KindProductNotFound,
				Field:     field + ".product",
				Message:   fmt.Sprintf("Product %d does not exist", it.ProductID),
				ProductID: it.ProductID,
			})
			continue
		}
		if !p.IsActive {
			errs.add(FieldError{
				Kind:        KindProductUnavailable,
				Field:       field + ".product",
				Message:     fmt.Sprintf("%s is no longer available", p.Name),
				ProductID:   p.ID,
				ProductName: p.Name,
			})
			continue
		}
		if it.Quantity <= 0 {
			continue
		}
		if it.Quantity > p.StockQuantity {
			available, requested := p.StockQuantity, it.Quantity
			errs.add(FieldError{
				Kind:        KindInsufficientStock,
				Field:       field + ".quantity",
				Message:     fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", p.Name, available, requested),
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   &available,
				Requested:   &requested,
			})
			continue
		}
		items = append(items, ValidatedItem{Product: p, Quantity: it.Quantity})
	}

	email := firstNonEmpty(req.CustomerEmail, customer.Email)
	phone := firstNonEmpty(req.CustomerPhone, customer.PhoneNumber)
	address := firstNonEmpty(req.DeliveryAddress, customer.Address)

	if phone == "" {
		errs.add(FieldError{
			Kind:    KindMissingContactInfo,
			Field:   "customer_phone",
			Message: "Phone number is required. Provide one or save a default phone number on your profile",
		})
	} else if utf8.RuneCountInString(phone) > maxPhoneLen {
		errs.add(FieldError{
			Kind:    KindInvalidContactInfo,
			Field:   "customer_phone",
			Message: fmt.Sprintf("Phone number must be at most %d characters", maxPhoneLen),
		})
	}
	if address == "" {
		errs.add(FieldError{
			Kind:    KindMissingContactInfo,
			Field:   "delivery_address",
			Message: "Delivery address is required. Provide one or save a default address on your profile",
		})
	}

	if !errs.empty() {
		return nil, errs
	}
	return &ValidatedOrder{
		Customer:      customer,
		Items:         items,
		Email:         email,
		Phone:         phone,
		Address:       address,
		SaveAsDefault: req.SaveAsDefault,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
