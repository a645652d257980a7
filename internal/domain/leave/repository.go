package leave

import (
	"context"
	"time"
)

// LeaveRequestRepository methods take companyID for tenant isolation.
type LeaveRequestRepository interface {
	GetByID(ctx context.Context, companyID, id string) (LeaveRequest, error)
	Create(ctx context.Context, r LeaveRequest) (LeaveRequest, error)
	List(ctx context.Context, companyID string, filter ListLeaveRequestsFilter) ([]LeaveRequest, error)
	// UpdateStatus swaps status only if it is still from, reporting false otherwise.
	UpdateStatus(ctx context.Context, companyID, id string, from, to LeaveRequestStatus, reviewerID *string, rejectionReason *string, at time.Time) (bool, error)
	CheckOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error)
	// ListApprovedInRange returns approved requests touching [from, to].
	ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]LeaveRequest, error)
}
