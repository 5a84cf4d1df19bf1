package server

import (
	"time"

	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/tasks"
)

type orderItemResponse struct {
	ID          int64  `json:"id"`
	Product     int64  `json:"product"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	Customer        int64               `json:"customer"`
	CustomerName    string              `json:"customer_name"`
	Status          order.Status        `json:"status"`
	TotalAmount     string              `json:"total_amount"`
	TotalItems      int64               `json:"total_items"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone"`
	DeliveryAddress string              `json:"delivery_address"`
	Items           []orderItemResponse `json:"items"`
	Notifications   *tasks.Handles      `json:"notifications,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func newOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ID:          it.ID,
			Product:     it.ProductID,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			Price:       it.Price.StringFixed(2),
			Subtotal:    it.Subtotal().StringFixed(2),
		})
	}
	return orderResponse{
		ID:              o.ID,
		Customer:        o.CustomerID,
		CustomerName:    o.Customer.FullName(),
		Status:          o.Status,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		TotalItems:      o.TotalItems(),
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

func newOrderList(list []*order.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, newOrderResponse(o))
	}
	return out
}
