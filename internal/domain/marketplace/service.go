package marketplace

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

type MarketplaceService interface {
	CreateItem(ctx context.Context, caller user.Caller, req CreateItemRequest) (ItemResponse, error)
	ListItems(ctx context.Context, caller user.Caller) ([]ItemResponse, error)

	Purchase(ctx context.Context, caller user.Caller, req PurchaseRequest) (OrderResponse, error)
	Approve(ctx context.Context, caller user.Caller, orderID string) (OrderResponse, error)
	Reject(ctx context.Context, caller user.Caller, orderID string, req RejectOrderRequest) (OrderResponse, error)
	Consume(ctx context.Context, caller user.Caller, orderID string) (OrderResponse, error)
	ListMyOrders(ctx context.Context, caller user.Caller) ([]OrderResponse, error)
	ListOrders(ctx context.Context, caller user.Caller, status *OrderStatus) ([]OrderResponse, error)

	Wallet(ctx context.Context, caller user.Caller) (WalletResponse, error)
	GrantPoints(ctx context.Context, caller user.Caller, employeeID string, req GrantPointsRequest) (WalletResponse, error)
}
