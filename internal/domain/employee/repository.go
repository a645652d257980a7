package employee

import "context"

// EmployeeRepository methods take companyID for tenant isolation.
// The CompareAndSwap* methods report false when the stored value no longer
// matches old, so callers can re-read and retry.
type EmployeeRepository interface {
	GetByID(ctx context.Context, companyID, id string) (Employee, error)
	List(ctx context.Context, companyID string) ([]Employee, error)
	EmailExists(ctx context.Context, companyID, email string, excludeID *string) (bool, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, e Employee) (Employee, error)

	CompareAndSwapLateBalance(ctx context.Context, companyID, id string, old, new int) (bool, error)
	CompareAndSwapLeaveBalances(ctx context.Context, companyID, id string, old, new LeaveBalances) (bool, error)
	CompareAndSwapPoints(ctx context.Context, companyID, id string, old, new int) (bool, error)
	ResetLateBalances(ctx context.Context, companyID string, minutes int) (int64, error)
}

// LeaveBalances pairs the two leave counters that move together in one swap.
type LeaveBalances struct {
	Leave     int
	Emergency int
}
