package marketplace

import (
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/marketplace"
)

// Purchase debits the wallet by the item price. The order starts pending when
// the item needs approval, approved otherwise; the debit happens either way.
func Purchase(wallet int, item marketplace.Item) (int, marketplace.OrderStatus, error) {
	if !item.IsActive {
		return wallet, "", marketplace.ErrItemInactive
	}
	if wallet < item.PointsPrice {
		return wallet, "", fmt.Errorf("%w: have %d, need %d", marketplace.ErrInsufficientPoints, wallet, item.PointsPrice)
	}
	status := marketplace.OrderStatusApproved
	if item.ApprovalRequired {
		status = marketplace.OrderStatusPending
	}
	return wallet - item.PointsPrice, status, nil
}

var orderTransitions = map[marketplace.OrderStatus][]marketplace.OrderStatus{
	marketplace.OrderStatusPending:  {marketplace.OrderStatusApproved, marketplace.OrderStatusRejected},
	marketplace.OrderStatusApproved: {marketplace.OrderStatusRejected, marketplace.OrderStatusConsumed},
}

// Transition validates an order move and returns the wallet after it.
// Rejection refunds the points spent in full; nothing else touches the wallet.
func Transition(o marketplace.Order, to marketplace.OrderStatus, wallet int) (int, error) {
	allowed := false
	for _, s := range orderTransitions[o.Status] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return wallet, fmt.Errorf("%w: %s to %s", marketplace.ErrInvalidTransition, o.Status, to)
	}
	if to == marketplace.OrderStatusRejected {
		return wallet + o.PointsSpent, nil
	}
	return wallet, nil
}
