package marketplace

import (
	"context"
	"time"
)

// ItemRepository methods take companyID for tenant isolation.
type ItemRepository interface {
	Create(ctx context.Context, item Item) (Item, error)
	GetByID(ctx context.Context, companyID, id string) (Item, error)
	List(ctx context.Context, companyID string, activeOnly bool) ([]Item, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o Order) (Order, error)
	GetByID(ctx context.Context, companyID, id string) (Order, error)
	ListByEmployee(ctx context.Context, companyID, employeeID string) ([]Order, error)
	List(ctx context.Context, companyID string, status *OrderStatus) ([]Order, error)
	// UpdateStatus swaps status only if it is still from, reporting false otherwise.
	UpdateStatus(ctx context.Context, companyID, id string, from, to OrderStatus, reviewerID *string, reason *string, at time.Time) (bool, error)
}
