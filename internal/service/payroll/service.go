package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"golang.org/x/sync/errgroup"
)

// summaryWorkers bounds the per-employee fan-out of company-wide summaries.
const summaryWorkers = 8

type PayrollServiceImpl struct {
	adjustments payroll.AdjustmentRepository
	employees   employee.EmployeeRepository
	logs        attendance.LogRepository
	pending     attendance.PendingRepository
	leaves      leave.LeaveRequestRepository
	policies    policy.PolicyService
	holidays    holiday.Calendar
	recorder    audit.Recorder
	now         func() time.Time
}

func NewPayrollService(
	adjustments payroll.AdjustmentRepository,
	employees employee.EmployeeRepository,
	logs attendance.LogRepository,
	pending attendance.PendingRepository,
	leaves leave.LeaveRequestRepository,
	policies policy.PolicyService,
	holidays holiday.Calendar,
	recorder audit.Recorder,
) *PayrollServiceImpl {
	return &PayrollServiceImpl{
		adjustments: adjustments,
		employees:   employees,
		logs:        logs,
		pending:     pending,
		leaves:      leaves,
		policies:    policies,
		holidays:    holidays,
		recorder:    recorder,
		now:         time.Now,
	}
}

var viewAccess = user.AccessManagerWithPermission(user.PermissionPayrollView)

func monthRange(month time.Time) (time.Time, time.Time) {
	from := payroll.MonthStart(month)
	return from, from.AddDate(0, 1, -1)
}

// CreateAdjustment implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateAdjustment(ctx context.Context, caller user.Caller, req payroll.CreateAdjustmentRequest) (payroll.AdjustmentResponse, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return payroll.AdjustmentResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	month, bonus, deduction := req.Amounts()
	if bonus.IsZero() && deduction.IsZero() {
		return payroll.AdjustmentResponse{}, payroll.ErrEmptyAdjustment
	}

	if _, err := s.employees.GetByID(ctx, caller.CompanyID, req.EmployeeID); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	created, err := s.adjustments.Create(ctx, payroll.SalaryAdjustment{
		CompanyID:  caller.CompanyID,
		EmployeeID: req.EmployeeID,
		Month:      payroll.MonthStart(month),
		Bonus:      bonus.Round(2),
		Deduction:  deduction.Round(2),
		Reason:     req.Reason,
		CreatedBy:  &caller.EmployeeID,
	})
	if err != nil {
		return payroll.AdjustmentResponse{}, fmt.Errorf("failed to create salary adjustment: %w", err)
	}

	resp := payroll.ToAdjustmentResponse(created)
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   audit.KindSalaryAdjustment.Table(),
		RecordID:    created.ID,
		Action:      audit.ActionInsert,
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Manual adjustment for %s", created.Month.Format("2006-01")),
	})
	return resp, nil
}

// ListAdjustments implements payroll.PayrollService. Without payroll.view a
// caller only sees their own rows.
func (s *PayrollServiceImpl) ListAdjustments(ctx context.Context, caller user.Caller, month payroll.MonthRequest, employeeID *string) ([]payroll.AdjustmentResponse, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}

	var (
		rows []payroll.SalaryAdjustment
		err  error
	)
	if employeeID == nil || *employeeID != caller.EmployeeID {
		if err := viewAccess.Authorize(caller); err != nil {
			return nil, err
		}
	}
	if employeeID != nil {
		rows, err = s.adjustments.ListByEmployeeMonth(ctx, caller.CompanyID, *employeeID, month.Time())
	} else {
		rows, err = s.adjustments.ListByCompanyMonth(ctx, caller.CompanyID, month.Time())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list salary adjustments: %w", err)
	}

	out := make([]payroll.AdjustmentResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, payroll.ToAdjustmentResponse(a))
	}
	return out, nil
}

// Summary implements payroll.PayrollService.
func (s *PayrollServiceImpl) Summary(ctx context.Context, caller user.Caller, employeeID string, month payroll.MonthRequest) (payroll.SummaryResponse, error) {
	if err := month.Validate(); err != nil {
		return payroll.SummaryResponse{}, err
	}
	if employeeID == "" {
		employeeID = caller.EmployeeID
	}
	if employeeID != caller.EmployeeID {
		if err := viewAccess.Authorize(caller); err != nil {
			return payroll.SummaryResponse{}, err
		}
	}

	emp, err := s.employees.GetByID(ctx, caller.CompanyID, employeeID)
	if err != nil {
		return payroll.SummaryResponse{}, err
	}
	sum, err := s.summarize(ctx, emp, month.Time())
	if err != nil {
		return payroll.SummaryResponse{}, err
	}
	return payroll.ToSummaryResponse(sum), nil
}

func (s *PayrollServiceImpl) summarize(ctx context.Context, emp employee.Employee, month time.Time) (payroll.Summary, error) {
	from, to := monthRange(month)
	adjustments, err := s.adjustments.ListByEmployeeMonth(ctx, emp.CompanyID, emp.ID, from)
	if err != nil {
		return payroll.Summary{}, fmt.Errorf("failed to list salary adjustments: %w", err)
	}
	logs, err := s.logs.ListByEmployeeRange(ctx, emp.CompanyID, emp.ID, from, to)
	if err != nil {
		return payroll.Summary{}, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	return Aggregate(emp, from, adjustments, logs), nil
}

// CompanySummary implements payroll.PayrollService.
func (s *PayrollServiceImpl) CompanySummary(ctx context.Context, caller user.Caller, month payroll.MonthRequest) ([]payroll.SummaryResponse, error) {
	if err := viewAccess.Authorize(caller); err != nil {
		return nil, err
	}
	if err := month.Validate(); err != nil {
		return nil, err
	}

	employees, err := s.employees.List(ctx, caller.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	out := make([]payroll.SummaryResponse, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryWorkers)
	for i, emp := range employees {
		g.Go(func() error {
			sum, err := s.summarize(gctx, emp, month.Time())
			if err != nil {
				return err
			}
			out[i] = payroll.ToSummaryResponse(sum)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateAutoAdjustments implements payroll.PayrollService.
func (s *PayrollServiceImpl) GenerateAutoAdjustments(ctx context.Context, caller user.Caller, month payroll.MonthRequest) (payroll.GenerateResponse, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return payroll.GenerateResponse{}, err
	}
	if err := month.Validate(); err != nil {
		return payroll.GenerateResponse{}, err
	}

	created, err := s.GenerateForCompany(ctx, caller.CompanyID, month.Time())
	if err != nil {
		return payroll.GenerateResponse{}, err
	}

	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   audit.KindSalaryAdjustment.Table(),
		RecordID:    month.Month,
		Action:      audit.ActionInsert,
		Description: fmt.Sprintf("Generated %d auto adjustment(s) for %s", created, month.Month),
	})
	return payroll.GenerateResponse{Month: month.Month, Created: created}, nil
}

// GenerateForCompany writes the auto rows for every employee of a company and
// returns how many were new. Rows already present are skipped by source key.
func (s *PayrollServiceImpl) GenerateForCompany(ctx context.Context, companyID string, month time.Time) (int, error) {
	from, to := monthRange(month)

	cp, err := s.policies.Get(ctx, companyID)
	if err != nil {
		return 0, err
	}
	employees, err := s.employees.List(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to list employees: %w", err)
	}
	approved, err := s.leaves.ListApprovedInRange(ctx, companyID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list approved leave: %w", err)
	}

	var holidays holiday.Set
	if s.holidays != nil && cp.HolidayCountryCode != "" {
		holidays = holiday.NewSet(s.holidays.Holidays(ctx, cp.HolidayCountryCode, from.Year()))
	}

	open := attendance.PendingStatusPending
	queued, err := s.pending.List(ctx, companyID, &open)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending attendance: %w", err)
	}
	pendingByEmployee := make(map[string][]time.Time)
	for _, p := range queued {
		if p.Kind == attendance.PendingKindCheckIn && !p.Date.Before(from) && !p.Date.After(to) {
			pendingByEmployee[p.EmployeeID] = append(pendingByEmployee[p.EmployeeID], p.Date)
		}
	}

	leavesByEmployee := make(map[string][]leave.LeaveRequest)
	for _, r := range approved {
		leavesByEmployee[r.EmployeeID] = append(leavesByEmployee[r.EmployeeID], r)
	}

	now := s.now()
	created := 0
	for _, emp := range employees {
		logs, err := s.logs.ListByEmployeeRange(ctx, companyID, emp.ID, from, to)
		if err != nil {
			return created, fmt.Errorf("failed to list attendance logs: %w", err)
		}

		rows := BuildAutoAdjustments(AutoInput{
			Employee:       emp,
			Policy:         policy.Resolve(emp.Override(), cp),
			Month:          from,
			Logs:           logs,
			ApprovedLeaves: leavesByEmployee[emp.ID],
			PendingDates:   pendingByEmployee[emp.ID],
			Holidays:       holidays,
			Now:            now,
		})
		for _, row := range rows {
			ok, err := s.adjustments.CreateAuto(ctx, row)
			if err != nil {
				return created, fmt.Errorf("failed to create auto adjustment %s: %w", *row.SourceKey, err)
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}
