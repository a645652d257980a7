package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

type LeaveService interface {
	Create(ctx context.Context, caller user.Caller, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, caller user.Caller, id string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, caller user.Caller, id string, req RejectLeaveRequestRequest) (LeaveRequestResponse, error)
	Delete(ctx context.Context, caller user.Caller, id string) error
	ListMy(ctx context.Context, caller user.Caller) ([]LeaveRequestResponse, error)
	List(ctx context.Context, caller user.Caller, filter ListLeaveRequestsFilter) ([]LeaveRequestResponse, error)
	GetBalance(ctx context.Context, caller user.Caller, employeeID string) (BalanceResponse, error)
}
