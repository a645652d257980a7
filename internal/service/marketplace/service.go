package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/marketplace"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
)

const (
	itemsTable  = "marketplace_items"
	ordersTable = "marketplace_orders"
)

var manageAccess = user.AccessManagerWithPermission(user.PermissionMarketplaceManage)

type MarketplaceServiceImpl struct {
	tx        database.Transactor
	items     marketplace.ItemRepository
	orders    marketplace.OrderRepository
	employees employee.EmployeeRepository
	notifier  notification.Notifier
	recorder  audit.Recorder
	now       func() time.Time
}

func NewMarketplaceService(
	tx database.Transactor,
	items marketplace.ItemRepository,
	orders marketplace.OrderRepository,
	employees employee.EmployeeRepository,
	notifier notification.Notifier,
	recorder audit.Recorder,
) marketplace.MarketplaceService {
	return &MarketplaceServiceImpl{
		tx:        tx,
		items:     items,
		orders:    orders,
		employees: employees,
		notifier:  notifier,
		recorder:  recorder,
		now:       time.Now,
	}
}

// CreateItem implements marketplace.MarketplaceService.
func (s *MarketplaceServiceImpl) CreateItem(ctx context.Context, caller user.Caller, req marketplace.CreateItemRequest) (marketplace.ItemResponse, error) {
	if err := manageAccess.Authorize(caller); err != nil {
		return marketplace.ItemResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return marketplace.ItemResponse{}, err
	}

	item, err := s.items.Create(ctx, marketplace.Item{
		CompanyID:        caller.CompanyID,
		Name:             req.Name,
		Description:      req.Description,
		PointsPrice:      req.PointsPrice,
		ApprovalRequired: req.ApprovalRequired,
		IsActive:         true,
	})
	if err != nil {
		return marketplace.ItemResponse{}, fmt.Errorf("failed to create marketplace item: %w", err)
	}

	resp := marketplace.ToItemResponse(item)
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   itemsTable,
		RecordID:    item.ID,
		Action:      audit.ActionInsert,
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Listed %s for %d points", item.Name, item.PointsPrice),
	})
	return resp, nil
}

// ListItems implements marketplace.MarketplaceService. Inactive items are
// only listed for marketplace managers.
func (s *MarketplaceServiceImpl) ListItems(ctx context.Context, caller user.Caller) ([]marketplace.ItemResponse, error) {
	activeOnly := manageAccess.Authorize(caller) != nil
	items, err := s.items.List(ctx, caller.CompanyID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace items: %w", err)
	}
	out := make([]marketplace.ItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, marketplace.ToItemResponse(i))
	}
	return out, nil
}

// Purchase implements marketplace.MarketplaceService.
func (s *MarketplaceServiceImpl) Purchase(ctx context.Context, caller user.Caller, req marketplace.PurchaseRequest) (marketplace.OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return marketplace.OrderResponse{}, err
	}

	var (
		order marketplace.Order
		buyer employee.Employee
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByID(ctx, caller.CompanyID, req.ItemID)
		if err != nil {
			return err
		}

		var status marketplace.OrderStatus
		err = employee.SwapWithRetry(ctx, func(ctx context.Context) (bool, error) {
			emp, err := s.employees.GetByID(ctx, caller.CompanyID, caller.EmployeeID)
			if err != nil {
				return false, err
			}
			buyer = emp
			var next int
			next, status, err = Purchase(emp.PointsBalance, item)
			if err != nil {
				return false, err
			}
			return s.employees.CompareAndSwapPoints(ctx, caller.CompanyID, emp.ID, emp.PointsBalance, next)
		})
		if err != nil {
			return err
		}

		order, err = s.orders.Create(ctx, marketplace.Order{
			CompanyID:   caller.CompanyID,
			EmployeeID:  caller.EmployeeID,
			ItemID:      item.ID,
			PointsSpent: item.PointsPrice,
			Status:      status,
		})
		if err != nil {
			return fmt.Errorf("failed to create marketplace order: %w", err)
		}
		order.ItemName = &item.Name
		return nil
	})
	if err != nil {
		return marketplace.OrderResponse{}, err
	}

	resp := marketplace.ToOrderResponse(order)
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   ordersTable,
		RecordID:    order.ID,
		Action:      audit.ActionInsert,
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Spent %d points on %s", order.PointsSpent, *order.ItemName),
	})

	if order.Status == marketplace.OrderStatusPending && buyer.ManagerID != nil {
		s.notifier.Notify(ctx, notification.CreateNotificationRequest{
			CompanyID:   caller.CompanyID,
			RecipientID: *buyer.ManagerID,
			SenderID:    &caller.EmployeeID,
			Type:        notification.TypeOrderPending,
			Title:       "Marketplace order waiting for approval",
			Message:     fmt.Sprintf("%s ordered %s", buyer.FullName, *order.ItemName),
			Data:        map[string]interface{}{"order_id": order.ID},
		})
	}
	return resp, nil
}

// Approve implements marketplace.MarketplaceService.
func (s *MarketplaceServiceImpl) Approve(ctx context.Context, caller user.Caller, orderID string) (marketplace.OrderResponse, error) {
	if err := manageAccess.Authorize(caller); err != nil {
		return marketplace.OrderResponse{}, err
	}
	return s.move(ctx, caller, orderID, marketplace.OrderStatusApproved, nil)
}

// Reject implements marketplace.MarketplaceService. The points spent go back
// to the buyer.
func (s *MarketplaceServiceImpl) Reject(ctx context.Context, caller user.Caller, orderID string, req marketplace.RejectOrderRequest) (marketplace.OrderResponse, error) {
	if err := manageAccess.Authorize(caller); err != nil {
		return marketplace.OrderResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return marketplace.OrderResponse{}, err
	}
	return s.move(ctx, caller, orderID, marketplace.OrderStatusRejected, &req.Reason)
}

// Consume implements marketplace.MarketplaceService. The buyer redeems their
// own approved order; managers may mark any.
func (s *MarketplaceServiceImpl) Consume(ctx context.Context, caller user.Caller, orderID string) (marketplace.OrderResponse, error) {
	o, err := s.orders.GetByID(ctx, caller.CompanyID, orderID)
	if err != nil {
		return marketplace.OrderResponse{}, err
	}
	if o.EmployeeID != caller.EmployeeID {
		if err := manageAccess.Authorize(caller); err != nil {
			return marketplace.OrderResponse{}, err
		}
	}
	return s.move(ctx, caller, orderID, marketplace.OrderStatusConsumed, nil)
}

func (s *MarketplaceServiceImpl) move(ctx context.Context, caller user.Caller, orderID string, to marketplace.OrderStatus, reason *string) (marketplace.OrderResponse, error) {
	now := s.now()
	var before, after marketplace.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, caller.CompanyID, orderID)
		if err != nil {
			return err
		}
		// validate before touching anything
		if _, err := Transition(o, to, 0); err != nil {
			return err
		}

		ok, err := s.orders.UpdateStatus(ctx, caller.CompanyID, o.ID, o.Status, to, &caller.EmployeeID, reason, now)
		if err != nil {
			return fmt.Errorf("failed to update marketplace order: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: order changed concurrently", marketplace.ErrInvalidTransition)
		}

		if to == marketplace.OrderStatusRejected {
			err = employee.SwapWithRetry(ctx, func(ctx context.Context) (bool, error) {
				emp, err := s.employees.GetByID(ctx, o.CompanyID, o.EmployeeID)
				if err != nil {
					return false, err
				}
				next, err := Transition(o, to, emp.PointsBalance)
				if err != nil {
					return false, err
				}
				return s.employees.CompareAndSwapPoints(ctx, o.CompanyID, o.EmployeeID, emp.PointsBalance, next)
			})
			if err != nil {
				return err
			}
		}

		before, after = o, o
		after.Status = to
		after.RejectionReason = reason
		if to == marketplace.OrderStatusConsumed {
			after.ConsumedAt = &now
		} else {
			after.ReviewedBy = &caller.EmployeeID
			after.ReviewedAt = &now
		}
		return nil
	})
	if err != nil {
		return marketplace.OrderResponse{}, err
	}

	resp := marketplace.ToOrderResponse(after)
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   ordersTable,
		RecordID:    after.ID,
		Action:      audit.ActionUpdate,
		OldData:     audit.JSON(marketplace.ToOrderResponse(before)),
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Order %s", to),
	})

	if to != marketplace.OrderStatusConsumed {
		nType, title := notification.TypeOrderApproved, "Marketplace order approved"
		if to == marketplace.OrderStatusRejected {
			nType, title = notification.TypeOrderRejected, "Marketplace order rejected"
		}
		s.notifier.Notify(ctx, notification.CreateNotificationRequest{
			CompanyID:   caller.CompanyID,
			RecipientID: after.EmployeeID,
			SenderID:    &caller.EmployeeID,
			Type:        nType,
			Title:       title,
			Message:     fmt.Sprintf("Your order was %s", to),
			Data:        map[string]interface{}{"order_id": after.ID, "points_spent": after.PointsSpent},
		})
	}
	return resp, nil
}

// ListMyOrders implements marketplace.MarketplaceService.
func (s *MarketplaceServiceImpl) ListMyOrders(ctx context.Context, caller user.Caller) ([]marketplace.OrderResponse, error) {
	orders, err := s.orders.ListByEmployee(ctx, caller.CompanyID, caller.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace orders: %w", err)
	}
	return toOrderResponses(orders), nil
}

// ListOrders implements marketplace.MarketplaceService.
func (s *MarketplaceServiceImpl) ListOrders(ctx context.Context, caller user.Caller, status *marketplace.OrderStatus) ([]marketplace.OrderResponse, error) {
	if err := manageAccess.Authorize(caller); err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, caller.CompanyID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace orders: %w", err)
	}
	return toOrderResponses(orders), nil
}

func toOrderResponses(orders []marketplace.Order) []marketplace.OrderResponse {
	out := make([]marketplace.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, marketplace.ToOrderResponse(o))
	}
	return out
}

// Wallet implements marketplace.MarketplaceService.
func (s *MarketplaceServiceImpl) Wallet(ctx context.Context, caller user.Caller) (marketplace.WalletResponse, error) {
	emp, err := s.employees.GetByID(ctx, caller.CompanyID, caller.EmployeeID)
	if err != nil {
		return marketplace.WalletResponse{}, err
	}
	return marketplace.WalletResponse{EmployeeID: emp.ID, Points: emp.PointsBalance}, nil
}

// GrantPoints implements marketplace.MarketplaceService.
func (s *MarketplaceServiceImpl) GrantPoints(ctx context.Context, caller user.Caller, employeeID string, req marketplace.GrantPointsRequest) (marketplace.WalletResponse, error) {
	if err := manageAccess.Authorize(caller); err != nil {
		return marketplace.WalletResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return marketplace.WalletResponse{}, err
	}

	var balance int
	err := employee.SwapWithRetry(ctx, func(ctx context.Context) (bool, error) {
		emp, err := s.employees.GetByID(ctx, caller.CompanyID, employeeID)
		if err != nil {
			return false, err
		}
		balance = emp.PointsBalance + req.Points
		return s.employees.CompareAndSwapPoints(ctx, caller.CompanyID, employeeID, emp.PointsBalance, balance)
	})
	if err != nil {
		return marketplace.WalletResponse{}, err
	}

	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   audit.KindEmployee.Table(),
		RecordID:    employeeID,
		Action:      audit.ActionUpdate,
		NewData:     audit.JSON(map[string]interface{}{"points_balance": balance}),
		Description: fmt.Sprintf("Granted %d points: %s", req.Points, req.Reason),
	})
	s.notifier.Notify(ctx, notification.CreateNotificationRequest{
		CompanyID:   caller.CompanyID,
		RecipientID: employeeID,
		SenderID:    &caller.EmployeeID,
		Type:        notification.TypePointsGranted,
		Title:       "Points received",
		Message:     fmt.Sprintf("You received %d points: %s", req.Points, req.Reason),
		Data:        map[string]interface{}{"points": req.Points},
	})
	return marketplace.WalletResponse{EmployeeID: employeeID, Points: balance}, nil
}
