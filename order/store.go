package order

import (
	"context"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/transition"
)

type Store interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*Order, error)
	UpdateOrder(ctx context.Context, o *Order) error
	ListOrders(ctx context.Context, tenantID string, opts ListOpts) ([]*Order, error)
}

type ListOpts struct {
	State  transition.State
	Limit  int
	Offset int
}
