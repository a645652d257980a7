package leave

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
)

// snapshotRow is the slice of a leave_requests row snapshot the ledger needs.
type snapshotRow struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	Days       int    `json:"days"`
	Status     string `json:"status"`
}

func (r snapshotRow) request(companyID string) leave.LeaveRequest {
	return leave.LeaveRequest{
		CompanyID:  companyID,
		EmployeeID: r.EmployeeID,
		LeaveType:  leave.LeaveType(r.LeaveType),
		Days:       r.Days,
		Status:     leave.LeaveRequestStatus(r.Status),
	}
}

// balanceStore keeps the leave ledger consistent across registry deletes and
// restores: removing an approved request credits its days, restoring one
// debits them again.
type balanceStore struct {
	audit.RecordStore
	employees employee.EmployeeRepository
}

// NewRecordStore wraps the row store registered for leave requests.
func NewRecordStore(rows audit.RecordStore, employees employee.EmployeeRepository) audit.RecordStore {
	return &balanceStore{RecordStore: rows, employees: employees}
}

func (s *balanceStore) Remove(ctx context.Context, companyID, id string) error {
	raw, err := s.RecordStore.Snapshot(ctx, companyID, id)
	if err != nil {
		return err
	}
	var row snapshotRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return fmt.Errorf("failed to decode leave request snapshot: %w", err)
	}

	r := row.request(companyID)
	if err := moveBalance(ctx, s.employees, r, r.Status, leave.LeaveRequestStatusDeleted); err != nil {
		return err
	}
	return s.RecordStore.Remove(ctx, companyID, id)
}

func (s *balanceStore) Restore(ctx context.Context, companyID string, data json.RawMessage) error {
	var row snapshotRow
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("failed to decode leave request snapshot: %w", err)
	}
	if err := s.RecordStore.Restore(ctx, companyID, data); err != nil {
		return err
	}

	r := row.request(companyID)
	if r.Status != leave.LeaveRequestStatusApproved {
		return nil
	}
	// re-entering approved from a pending baseline debits the days, clamped at zero
	return moveBalance(ctx, s.employees, r, leave.LeaveRequestStatusPending, leave.LeaveRequestStatusApproved)
}
