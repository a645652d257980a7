package leave

import (
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
)

var allowedTransitions = map[leave.LeaveRequestStatus][]leave.LeaveRequestStatus{
	leave.LeaveRequestStatusPending:  {leave.LeaveRequestStatusApproved, leave.LeaveRequestStatusRejected},
	leave.LeaveRequestStatusApproved: {leave.LeaveRequestStatusRejected},
	leave.LeaveRequestStatusRejected: {leave.LeaveRequestStatusApproved, leave.LeaveRequestStatusRejected},
}

// CanTransition reports whether a request may move from one status to another.
// Deleting is allowed from every stored status.
func CanTransition(from, to leave.LeaveRequestStatus) bool {
	if to == leave.LeaveRequestStatusDeleted {
		return from != leave.LeaveRequestStatusDeleted
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition returns the balances after moving a request of the given
// type and length from one status to another. Entering approved debits days,
// clamped at zero. Leaving approved credits the full days back with no ceiling,
// so a clamped debit followed by a reversal ends above the starting balance.
func ApplyTransition(from, to leave.LeaveRequestStatus, leaveType leave.LeaveType, days int, b employee.LeaveBalances) (employee.LeaveBalances, error) {
	if !CanTransition(from, to) {
		return b, fmt.Errorf("%w: %s to %s", leave.ErrInvalidTransition, from, to)
	}

	counter := &b.Leave
	if leaveType.DrawsEmergencyBalance() {
		counter = &b.Emergency
	}

	switch {
	case to == leave.LeaveRequestStatusApproved && from != leave.LeaveRequestStatusApproved:
		*counter = max(0, *counter-days)
	case from == leave.LeaveRequestStatusApproved && to != leave.LeaveRequestStatusApproved:
		*counter += days
	}
	return b, nil
}

// HasSufficientBalance checks a new request against the counter it draws from.
func HasSufficientBalance(leaveType leave.LeaveType, days int, b employee.LeaveBalances) bool {
	if leaveType.DrawsEmergencyBalance() {
		return b.Emergency >= days
	}
	return b.Leave >= days
}
