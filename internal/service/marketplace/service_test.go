package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/marketplace"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memItems map[string]marketplace.Item

func (m memItems) Create(ctx context.Context, item marketplace.Item) (marketplace.Item, error) {
	item.ID = uuid.New().String()
	m[item.ID] = item
	return item, nil
}

func (m memItems) GetByID(ctx context.Context, companyID, id string) (marketplace.Item, error) {
	item, ok := m[id]
	if !ok || item.CompanyID != companyID {
		return marketplace.Item{}, marketplace.ErrItemNotFound
	}
	return item, nil
}

func (m memItems) List(ctx context.Context, companyID string, activeOnly bool) ([]marketplace.Item, error) {
	var out []marketplace.Item
	for _, item := range m {
		if item.CompanyID == companyID && (!activeOnly || item.IsActive) {
			out = append(out, item)
		}
	}
	return out, nil
}

type memOrders map[string]marketplace.Order

func (m memOrders) Create(ctx context.Context, o marketplace.Order) (marketplace.Order, error) {
	o.ID = uuid.New().String()
	o.CreatedAt = time.Now()
	m[o.ID] = o
	return o, nil
}

func (m memOrders) GetByID(ctx context.Context, companyID, id string) (marketplace.Order, error) {
	o, ok := m[id]
	if !ok || o.CompanyID != companyID {
		return marketplace.Order{}, marketplace.ErrOrderNotFound
	}
	return o, nil
}

func (m memOrders) ListByEmployee(ctx context.Context, companyID, employeeID string) ([]marketplace.Order, error) {
	var out []marketplace.Order
	for _, o := range m {
		if o.CompanyID == companyID && o.EmployeeID == employeeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m memOrders) List(ctx context.Context, companyID string, status *marketplace.OrderStatus) ([]marketplace.Order, error) {
	var out []marketplace.Order
	for _, o := range m {
		if o.CompanyID == companyID && (status == nil || o.Status == *status) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m memOrders) UpdateStatus(ctx context.Context, companyID, id string, from, to marketplace.OrderStatus, reviewerID *string, reason *string, at time.Time) (bool, error) {
	o, ok := m[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.RejectionReason = reason
	m[id] = o
	return true, nil
}

const (
	companyID = "company-1"
	buyerID   = "emp-buyer"
	leadID    = "emp-lead"
)

type harness struct {
	svc       marketplace.MarketplaceService
	items     memItems
	employees *fixtures.EmployeeStore
	notifier  *fixtures.Notifier
}

func newHarness() *harness {
	lead := leadID
	h := &harness{
		items: memItems{},
		employees: fixtures.NewEmployeeStore(
			employee.Employee{ID: buyerID, CompanyID: companyID, FullName: "Buyer", ManagerID: &lead, PointsBalance: 500},
			employee.Employee{ID: leadID, CompanyID: companyID, FullName: "Lead", Role: user.RoleManager},
		),
		notifier: &fixtures.Notifier{},
	}
	h.svc = NewMarketplaceService(&fixtures.InlineTx{}, h.items, memOrders{}, h.employees, h.notifier, &fixtures.Recorder{})
	return h
}

func (h *harness) item(price int, approval, active bool) string {
	item, _ := h.items.Create(context.Background(), marketplace.Item{
		CompanyID: companyID, Name: "Voucher", PointsPrice: price, ApprovalRequired: approval, IsActive: active,
	})
	return item.ID
}

func (h *harness) points() int {
	return h.employees.Row(buyerID).PointsBalance
}

func buyer() user.Caller {
	return user.Caller{EmployeeID: buyerID, CompanyID: companyID, Role: user.RoleEmployee}
}

func lead() user.Caller {
	return user.Caller{EmployeeID: leadID, CompanyID: companyID, Role: user.RoleManager,
		Permissions: []user.Permission{user.PermissionMarketplaceManage}}
}

func TestPurchase_RejectRefundsInFull(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	itemID := h.item(500, true, true)

	order, err := h.svc.Purchase(ctx, buyer(), marketplace.PurchaseRequest{ItemID: itemID})
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.OrderStatusPending), order.Status)
	assert.Equal(t, 0, h.points())

	sent := h.notifier.To(leadID)
	require.Len(t, sent, 1)
	assert.Equal(t, notification.TypeOrderPending, sent[0].Type)

	_, err = h.svc.Reject(ctx, buyer(), order.ID, marketplace.RejectOrderRequest{Reason: "no"})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	rejected, err := h.svc.Reject(ctx, lead(), order.ID, marketplace.RejectOrderRequest{Reason: "out of stock"})
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.OrderStatusRejected), rejected.Status)
	assert.Equal(t, 500, h.points())

	_, err = h.svc.Approve(ctx, lead(), order.ID)
	assert.ErrorIs(t, err, marketplace.ErrInvalidTransition)
	assert.Equal(t, 500, h.points())
}

func TestPurchase_WithoutApprovalThenConsume(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	itemID := h.item(120, false, true)

	order, err := h.svc.Purchase(ctx, buyer(), marketplace.PurchaseRequest{ItemID: itemID})
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.OrderStatusApproved), order.Status)
	assert.Equal(t, 380, h.points())
	assert.Empty(t, h.notifier.To(leadID))

	consumed, err := h.svc.Consume(ctx, buyer(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.OrderStatusConsumed), consumed.Status)

	_, err = h.svc.Reject(ctx, lead(), order.ID, marketplace.RejectOrderRequest{Reason: "late"})
	assert.ErrorIs(t, err, marketplace.ErrInvalidTransition)
	assert.Equal(t, 380, h.points(), "consumed orders are not refunded")
}

func TestPurchase_Guards(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Purchase(ctx, buyer(), marketplace.PurchaseRequest{ItemID: h.item(501, false, true)})
	assert.ErrorIs(t, err, marketplace.ErrInsufficientPoints)

	_, err = h.svc.Purchase(ctx, buyer(), marketplace.PurchaseRequest{ItemID: h.item(10, false, false)})
	assert.ErrorIs(t, err, marketplace.ErrItemInactive)

	_, err = h.svc.Purchase(ctx, buyer(), marketplace.PurchaseRequest{ItemID: uuid.New().String()})
	assert.ErrorIs(t, err, marketplace.ErrItemNotFound)

	assert.Equal(t, 500, h.points())
}

func TestItemsAndGrants(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.item(10, false, false)

	_, err := h.svc.CreateItem(ctx, buyer(), marketplace.CreateItemRequest{Name: "Mug", PointsPrice: 50})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = h.svc.CreateItem(ctx, lead(), marketplace.CreateItemRequest{Name: "Mug", PointsPrice: 50})
	require.NoError(t, err)

	visible, err := h.svc.ListItems(ctx, buyer())
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := h.svc.ListItems(ctx, lead())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	w, err := h.svc.GrantPoints(ctx, lead(), buyerID, marketplace.GrantPointsRequest{Points: 25, Reason: "helped onboarding"})
	require.NoError(t, err)
	assert.Equal(t, 525, w.Points)

	w, err = h.svc.Wallet(ctx, buyer())
	require.NoError(t, err)
	assert.Equal(t, 525, w.Points)

	got := h.notifier.To(buyerID)
	require.Len(t, got, 1)
	assert.Equal(t, notification.TypePointsGranted, got[0].Type)

	_, err = h.svc.GrantPoints(ctx, lead(), buyerID, marketplace.GrantPointsRequest{Points: 0, Reason: "x"})
	assert.Error(t, err)
}
