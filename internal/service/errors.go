package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
)

var (
	ErrForbidden    = errors.New("permission denied")
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrInvalidInput 账号、商品、分类接口的参数错误
	ErrInvalidInput = errors.New("invalid input")
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// ErrorKind 下单校验错误类型
type ErrorKind string

const (
	KindEmptyOrder         ErrorKind = "EmptyOrder"
	KindInvalidQuantity    ErrorKind = "InvalidQuantity"
	KindInsufficientStock  ErrorKind = "InsufficientStock"
	KindMissingContactInfo ErrorKind = "MissingContactInfo"
	KindInvalidContactInfo ErrorKind = "InvalidContactInfo"
	KindProductNotFound    ErrorKind = "ProductNotFound"
	KindProductUnavailable ErrorKind = "ProductUnavailable"
	KindDuplicateProduct   ErrorKind = "DuplicateProduct"
)

// FieldError 单个字段的校验错误，Available / Requested 只在 InsufficientStock 时设置
type FieldError struct {
	Kind        ErrorKind `json:"kind"`
	Field       string    `json:"field"`
	Message     string    `json:"message"`
	ProductID   int64     `json:"product_id,omitempty"`
	ProductName string    `json:"product_name,omitempty"`
	Available   *int64    `json:"available,omitempty"`
	Requested   *int64    `json:"requested,omitempty"`
}

// ValidationErrors 一次性返回全部校验错误
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "order validation failed: " + strings.Join(msgs, "; ")
}

// Has 是否包含指定类型的错误
func (e *ValidationErrors) Has(kind ErrorKind) bool {
	return e.Find(kind) != nil
}

// Find 返回第一个指定类型的错误
func (e *ValidationErrors) Find(kind ErrorKind) *FieldError {
	for i := range e.Errors {
		if e.Errors[i].Kind == kind {
			return &e.Errors[i]
		}
	}
	return nil
}

func (e *ValidationErrors) add(fe FieldError) {
	e.Errors = append(e.Errors, fe)
}

func (e *ValidationErrors) empty() bool {
	return len(e.Errors) == 0
}

// ConflictError 校验通过后提交时库存已被并发订单占用，整个事务已回滚，客户端可重试
type ConflictError struct {
	ProductID   int64
	ProductName string
	Requested   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stock for %s changed while placing the order (requested %d), please retry", e.ProductName, e.Requested)
}

func (e *ConflictError) Retryable() bool {
	return true
}

// IsNotFound 判断是否为任一实体不存在
func IsNotFound(err error) bool {
	return errors.Is(err, order.ErrNotFound) ||
		errors.Is(err, product.ErrNotFound) ||
		errors.Is(err, user.ErrNotFound) ||
		errors.Is(err, category.ErrNotFound)
}
