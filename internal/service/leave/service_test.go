package leave

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID = "company-1"
	ownerID   = "emp-owner"
	bossID    = "emp-boss"
)

type harness struct {
	svc       leave.LeaveService
	requests  *fixtures.LeaveStore
	employees *fixtures.EmployeeStore
	deleter   *fixtures.Deleter
	notifier  *fixtures.Notifier
	recorder  *fixtures.Recorder
}

func newHarness() *harness {
	boss := bossID
	h := &harness{
		requests: fixtures.NewLeaveStore(),
		employees: fixtures.NewEmployeeStore(
			employee.Employee{ID: ownerID, CompanyID: companyID, FullName: "Owner", ManagerID: &boss, LeaveBalance: 21, EmergencyLeaveBalance: 7},
			employee.Employee{ID: bossID, CompanyID: companyID, FullName: "Boss", Role: user.RoleManager},
		),
		deleter:  &fixtures.Deleter{},
		notifier: &fixtures.Notifier{},
		recorder: &fixtures.Recorder{},
	}
	h.svc = NewLeaveService(&fixtures.InlineTx{}, h.requests, h.employees, h.deleter, h.notifier, h.recorder)
	return h
}

func owner() user.Caller {
	return user.Caller{EmployeeID: ownerID, CompanyID: companyID, Role: user.RoleEmployee}
}

func boss() user.Caller {
	return user.Caller{EmployeeID: bossID, CompanyID: companyID, Role: user.RoleManager,
		Permissions: []user.Permission{user.PermissionLeaveApprove, user.PermissionLeaveViewAll}}
}

func request(leaveType leave.LeaveType, start, end string) leave.CreateLeaveRequestRequest {
	return leave.CreateLeaveRequestRequest{LeaveType: string(leaveType), StartDate: start, EndDate: end, Reason: "family"}
}

func (h *harness) balances() employee.LeaveBalances {
	e := h.employees.Row(ownerID)
	return employee.LeaveBalances{Leave: e.LeaveBalance, Emergency: e.EmergencyLeaveBalance}
}

func TestLeave_ApproveRejectRoundTrip(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, owner(), request(leave.LeaveTypeVacation, "2024-05-06", "2024-05-10"))
	require.NoError(t, err)
	assert.Equal(t, 5, created.Days)
	assert.Equal(t, string(leave.LeaveRequestStatusPending), created.Status)

	sent := h.notifier.To(bossID)
	require.Len(t, sent, 1)
	assert.Equal(t, notification.TypeLeaveRequest, sent[0].Type)

	_, err = h.svc.Approve(ctx, boss(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.LeaveBalances{Leave: 16, Emergency: 7}, h.balances())

	_, err = h.svc.Reject(ctx, boss(), created.ID, leave.RejectLeaveRequestRequest{Reason: "coverage"})
	require.NoError(t, err)
	assert.Equal(t, employee.LeaveBalances{Leave: 21, Emergency: 7}, h.balances())

	_, err = h.svc.Reject(ctx, boss(), created.ID, leave.RejectLeaveRequestRequest{Reason: "again"})
	require.NoError(t, err, "rejecting a rejected request is a no-op")
	assert.Equal(t, employee.LeaveBalances{Leave: 21, Emergency: 7}, h.balances())

	assert.Equal(t, []audit.Action{audit.ActionInsert, audit.ActionUpdate, audit.ActionUpdate, audit.ActionUpdate}, h.recorder.Actions())
	assert.Len(t, h.notifier.To(ownerID), 3)
}

func TestLeave_EmergencyUsesItsOwnCounter(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, owner(), request(leave.LeaveTypeEmergency, "2024-05-06", "2024-05-07"))
	require.NoError(t, err)
	assert.Equal(t, notification.TypeEmergencyLeave, h.notifier.To(bossID)[0].Type)

	_, err = h.svc.Approve(ctx, boss(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.LeaveBalances{Leave: 21, Emergency: 5}, h.balances())

	_, err = h.svc.Approve(ctx, boss(), created.ID)
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
}

func TestLeave_CreateChecksBalanceAndOverlap(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, owner(), request(leave.LeaveTypeEmergency, "2024-05-01", "2024-05-08"))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	_, err = h.svc.Create(ctx, owner(), request(leave.LeaveTypeSick, "2024-05-01", "2024-05-02"))
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, owner(), request(leave.LeaveTypeSick, "2024-05-02", "2024-05-03"))
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)

	_, err = h.svc.Create(ctx, owner(), request("holiday", "2024-05-02", "2024-05-01"))
	assert.Error(t, err)
}

func TestLeave_ReviewAccess(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, owner(), request(leave.LeaveTypeVacation, "2024-05-06", "2024-05-06"))
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, owner(), created.ID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	selfApprover := owner()
	selfApprover.Role = user.RoleManager
	selfApprover.Permissions = []user.Permission{user.PermissionLeaveApprove}
	_, err = h.svc.Approve(ctx, selfApprover, created.ID)
	assert.Error(t, err, "managers cannot approve their own leave")

	_, err = h.svc.Reject(ctx, boss(), created.ID, leave.RejectLeaveRequestRequest{})
	assert.Error(t, err, "a rejection needs a reason")
	assert.Equal(t, 21, h.balances().Leave)
}

func TestLeave_Delete(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	pending, err := h.svc.Create(ctx, owner(), request(leave.LeaveTypeVacation, "2024-05-06", "2024-05-06"))
	require.NoError(t, err)
	approved, err := h.svc.Create(ctx, owner(), request(leave.LeaveTypeVacation, "2024-06-03", "2024-06-04"))
	require.NoError(t, err)
	_, err = h.svc.Approve(ctx, boss(), approved.ID)
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, owner(), pending.ID))

	err = h.svc.Delete(ctx, owner(), approved.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveAlreadyProcessed)

	err = h.svc.Delete(ctx, boss(), approved.ID)
	assert.ErrorIs(t, err, user.ErrAdminAccessRequired)

	admin := user.Caller{EmployeeID: "emp-admin", CompanyID: companyID, Role: user.RoleAdmin}
	require.NoError(t, h.svc.Delete(ctx, admin, approved.ID))

	assert.Equal(t, []string{
		string(audit.KindLeaveRequest) + ":" + pending.ID,
		string(audit.KindLeaveRequest) + ":" + approved.ID,
	}, h.deleter.Deleted)
}

func TestLeave_BalanceAccess(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.GetBalance(ctx, owner(), "")
	require.NoError(t, err)
	assert.Equal(t, 21, b.LeaveBalance)

	_, err = h.svc.GetBalance(ctx, owner(), bossID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	b, err = h.svc.GetBalance(ctx, boss(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 7, b.EmergencyLeaveBalance)

	_, err = h.svc.List(ctx, owner(), leave.ListLeaveRequestsFilter{})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

// rowStore stands in for the generic SQL store: it keeps raw JSON snapshots.
type rowStore struct {
	rows map[string]json.RawMessage
}

func (s *rowStore) Snapshot(ctx context.Context, companyID, id string) (json.RawMessage, error) {
	raw, ok := s.rows[id]
	if !ok {
		return nil, audit.ErrRecordNotFound
	}
	return raw, nil
}

func (s *rowStore) Remove(ctx context.Context, companyID, id string) error {
	delete(s.rows, id)
	return nil
}

func (s *rowStore) Restore(ctx context.Context, companyID string, data json.RawMessage) error {
	var row struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	s.rows[row.ID] = data
	return nil
}

func TestRecordStore_RemoveAndRestoreMoveBalances(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	e := h.employees.Row(ownerID)
	e.LeaveBalance = 16
	h.employees.Put(e)

	rows := &rowStore{rows: map[string]json.RawMessage{
		"lr-1": json.RawMessage(`{"id":"lr-1","employee_id":"emp-owner","leave_type":"vacation","days":5,"status":"approved"}`),
		"lr-2": json.RawMessage(`{"id":"lr-2","employee_id":"emp-owner","leave_type":"sick","days":2,"status":"pending"}`),
	}}
	store := NewRecordStore(rows, h.employees)

	snapshot, err := store.Snapshot(ctx, companyID, "lr-1")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, companyID, "lr-1"))
	assert.Equal(t, 21, h.balances().Leave)
	assert.NotContains(t, rows.rows, "lr-1")

	require.NoError(t, store.Remove(ctx, companyID, "lr-2"))
	assert.Equal(t, 21, h.balances().Leave, "pending requests hold no days")

	require.NoError(t, store.Restore(ctx, companyID, snapshot))
	assert.Equal(t, 16, h.balances().Leave)
	assert.Contains(t, rows.rows, "lr-1")
}
