package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
)

type LeaveServiceImpl struct {
	tx        database.Transactor
	requests  leave.LeaveRequestRepository
	employees employee.EmployeeRepository
	deleter   audit.Deleter
	notifier  notification.Notifier
	recorder  audit.Recorder
	now       func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	requests leave.LeaveRequestRepository,
	employees employee.EmployeeRepository,
	deleter audit.Deleter,
	notifier notification.Notifier,
	recorder audit.Recorder,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:        tx,
		requests:  requests,
		employees: employees,
		deleter:   deleter,
		notifier:  notifier,
		recorder:  recorder,
		now:       time.Now,
	}
}

var approveAccess = user.AccessManagerWithPermission(user.PermissionLeaveApprove)

// Create implements leave.LeaveService.
func (s *LeaveServiceImpl) Create(ctx context.Context, caller user.Caller, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	emp, err := s.employees.GetByID(ctx, caller.CompanyID, caller.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, end := req.Dates()
	leaveType := leave.LeaveType(req.LeaveType)
	days := leave.InclusiveDays(start, end)

	overlapping, err := s.requests.CheckOverlapping(ctx, caller.CompanyID, emp.ID, start, end)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to check overlapping leave: %w", err)
	}
	if overlapping {
		return leave.LeaveRequestResponse{}, leave.ErrOverlappingLeave
	}

	balances := employee.LeaveBalances{Leave: emp.LeaveBalance, Emergency: emp.EmergencyLeaveBalance}
	if !HasSufficientBalance(leaveType, days, balances) {
		return leave.LeaveRequestResponse{}, leave.ErrInsufficientBalance
	}

	created, err := s.requests.Create(ctx, leave.LeaveRequest{
		CompanyID:  caller.CompanyID,
		EmployeeID: emp.ID,
		LeaveType:  leaveType,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		Reason:     req.Reason,
		Status:     leave.LeaveRequestStatusPending,
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	created.EmployeeName = &emp.FullName

	resp := leave.ToResponse(created)
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   audit.KindLeaveRequest.Table(),
		RecordID:    created.ID,
		Action:      audit.ActionInsert,
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Requested %d day(s) of %s leave", days, leaveType),
	})

	if emp.ManagerID != nil {
		nType, title := notification.TypeLeaveRequest, "New leave request"
		if leaveType.DrawsEmergencyBalance() {
			nType, title = notification.TypeEmergencyLeave, "Emergency leave request"
		}
		s.notifier.Notify(ctx, notification.CreateNotificationRequest{
			CompanyID:   caller.CompanyID,
			RecipientID: *emp.ManagerID,
			SenderID:    &emp.ID,
			Type:        nType,
			Title:       title,
			Message:     fmt.Sprintf("%s requested %s leave from %s to %s", emp.FullName, leaveType, req.StartDate, req.EndDate),
			Data:        map[string]interface{}{"leave_request_id": created.ID},
		})
	}

	return resp, nil
}

// Approve implements leave.LeaveService.
func (s *LeaveServiceImpl) Approve(ctx context.Context, caller user.Caller, id string) (leave.LeaveRequestResponse, error) {
	return s.review(ctx, caller, id, leave.LeaveRequestStatusApproved, nil)
}

// Reject implements leave.LeaveService.
func (s *LeaveServiceImpl) Reject(ctx context.Context, caller user.Caller, id string, req leave.RejectLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return s.review(ctx, caller, id, leave.LeaveRequestStatusRejected, &req.Reason)
}

func (s *LeaveServiceImpl) review(ctx context.Context, caller user.Caller, id string, to leave.LeaveRequestStatus, reason *string) (leave.LeaveRequestResponse, error) {
	if err := approveAccess.Authorize(caller); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	now := s.now()
	var before, after leave.LeaveRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.requests.GetByID(ctx, caller.CompanyID, id)
		if err != nil {
			return err
		}
		if r.EmployeeID == caller.EmployeeID && !caller.IsAdmin() {
			return user.ErrAdminAccessRequired
		}
		if !CanTransition(r.Status, to) {
			return fmt.Errorf("%w: %s to %s", leave.ErrInvalidTransition, r.Status, to)
		}

		ok, err := s.requests.UpdateStatus(ctx, caller.CompanyID, id, r.Status, to, &caller.EmployeeID, reason, now)
		if err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		if !ok {
			return leave.ErrLeaveAlreadyProcessed
		}

		if err := moveBalance(ctx, s.employees, r, r.Status, to); err != nil {
			return err
		}

		before, after = r, r
		after.Status = to
		after.ReviewedBy = &caller.EmployeeID
		after.ReviewedAt = &now
		after.RejectionReason = reason
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	resp := leave.ToResponse(after)
	nType, verb := notification.TypeLeaveApproved, "approved"
	if to == leave.LeaveRequestStatusRejected {
		nType, verb = notification.TypeLeaveRejected, "rejected"
	}
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   audit.KindLeaveRequest.Table(),
		RecordID:    id,
		Action:      audit.ActionUpdate,
		OldData:     audit.JSON(leave.ToResponse(before)),
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Leave request %s", verb),
	})
	s.notifier.Notify(ctx, notification.CreateNotificationRequest{
		CompanyID:   caller.CompanyID,
		RecipientID: after.EmployeeID,
		SenderID:    &caller.EmployeeID,
		Type:        nType,
		Title:       fmt.Sprintf("Leave %s", verb),
		Message:     fmt.Sprintf("Your %s leave from %s was %s", after.LeaveType, after.StartDate.Format("2006-01-02"), verb),
		Data:        map[string]interface{}{"leave_request_id": id},
	})

	return resp, nil
}

// moveBalance applies the ledger effect of a status change to the owner's counters.
func moveBalance(ctx context.Context, employees employee.EmployeeRepository, r leave.LeaveRequest, from, to leave.LeaveRequestStatus) error {
	return employee.SwapWithRetry(ctx, func(ctx context.Context) (bool, error) {
		emp, err := employees.GetByID(ctx, r.CompanyID, r.EmployeeID)
		if err != nil {
			return false, err
		}
		old := employee.LeaveBalances{Leave: emp.LeaveBalance, Emergency: emp.EmergencyLeaveBalance}
		next, err := ApplyTransition(from, to, r.LeaveType, r.Days, old)
		if err != nil {
			return false, err
		}
		if next == old {
			return true, nil
		}
		return employees.CompareAndSwapLeaveBalances(ctx, r.CompanyID, r.EmployeeID, old, next)
	})
}

// Delete implements leave.LeaveService. Owners may withdraw their own pending
// requests, admins may delete any. The balance effect runs in the record store.
func (s *LeaveServiceImpl) Delete(ctx context.Context, caller user.Caller, id string) error {
	r, err := s.requests.GetByID(ctx, caller.CompanyID, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() {
		if r.EmployeeID != caller.EmployeeID {
			return user.ErrAdminAccessRequired
		}
		if r.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveAlreadyProcessed
		}
	}
	return s.deleter.DeleteRecord(ctx, caller, audit.KindLeaveRequest, id)
}

// ListMy implements leave.LeaveService.
func (s *LeaveServiceImpl) ListMy(ctx context.Context, caller user.Caller) ([]leave.LeaveRequestResponse, error) {
	return s.list(ctx, caller.CompanyID, leave.ListLeaveRequestsFilter{EmployeeID: &caller.EmployeeID})
}

// List implements leave.LeaveService.
func (s *LeaveServiceImpl) List(ctx context.Context, caller user.Caller, filter leave.ListLeaveRequestsFilter) ([]leave.LeaveRequestResponse, error) {
	if err := user.AccessManagerWithPermission(user.PermissionLeaveViewAll).Authorize(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, caller.CompanyID, filter)
}

func (s *LeaveServiceImpl) list(ctx context.Context, companyID string, filter leave.ListLeaveRequestsFilter) ([]leave.LeaveRequestResponse, error) {
	rows, err := s.requests.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	out := make([]leave.LeaveRequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, leave.ToResponse(r))
	}
	return out, nil
}

// GetBalance implements leave.LeaveService.
func (s *LeaveServiceImpl) GetBalance(ctx context.Context, caller user.Caller, employeeID string) (leave.BalanceResponse, error) {
	if employeeID == "" {
		employeeID = caller.EmployeeID
	}
	if employeeID != caller.EmployeeID {
		if err := user.AccessManagerWithPermission(user.PermissionLeaveViewAll).Authorize(caller); err != nil {
			return leave.BalanceResponse{}, err
		}
	}

	emp, err := s.employees.GetByID(ctx, caller.CompanyID, employeeID)
	if err != nil {
		return leave.BalanceResponse{}, err
	}
	return leave.BalanceResponse{
		EmployeeID:            emp.ID,
		LeaveBalance:          emp.LeaveBalance,
		EmergencyLeaveBalance: emp.EmergencyLeaveBalance,
	}, nil
}
