package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type AttendanceServiceImpl struct {
	tx        database.Transactor
	logs      attendance.LogRepository
	pending   attendance.PendingRepository
	employees employee.EmployeeRepository
	policies  policy.PolicyService
	holidays  holiday.Calendar
	notifier  notification.Notifier
	recorder  audit.Recorder
	now       func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	logs attendance.LogRepository,
	pending attendance.PendingRepository,
	employees employee.EmployeeRepository,
	policies policy.PolicyService,
	holidays holiday.Calendar,
	notifier notification.Notifier,
	recorder audit.Recorder,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		tx:        tx,
		logs:      logs,
		pending:   pending,
		employees: employees,
		policies:  policies,
		holidays:  holidays,
		notifier:  notifier,
		recorder:  recorder,
		now:       time.Now,
	}
}

// dateIn is the calendar day of t in loc, as a UTC midnight date value.
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *AttendanceServiceImpl) effective(ctx context.Context, companyID, employeeID string) (employee.Employee, policy.EffectivePolicy, error) {
	emp, err := s.employees.GetByID(ctx, companyID, employeeID)
	if err != nil {
		return employee.Employee{}, policy.EffectivePolicy{}, err
	}
	p, err := s.policies.Get(ctx, companyID)
	if err != nil {
		return employee.Employee{}, policy.EffectivePolicy{}, err
	}
	return emp, policy.Resolve(emp.Override(), p), nil
}

// nonWorkingDay covers weekends and public holidays. A calendar outage only
// means no holiday adjustment.
func (s *AttendanceServiceImpl) nonWorkingDay(ctx context.Context, eff policy.EffectivePolicy, date time.Time) bool {
	if eff.IsWeekend(date.Weekday()) {
		return true
	}
	if s.holidays == nil || eff.HolidayCountryCode == "" {
		return false
	}
	return holiday.NewSet(s.holidays.Holidays(ctx, eff.HolidayCountryCode, date.Year())).Contains(date)
}

func (s *AttendanceServiceImpl) todayLog(ctx context.Context, companyID, employeeID string, date time.Time) (*attendance.Log, error) {
	l, err := s.logs.GetByEmployeeDate(ctx, companyID, employeeID, date)
	if errors.Is(err, attendance.ErrAttendanceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance log: %w", err)
	}
	return &l, nil
}

func (s *AttendanceServiceImpl) audit(ctx context.Context, companyID string, actorID *string, table, recordID string, action audit.Action, oldData, newData interface{}, description string) {
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   companyID,
		ActorID:     actorID,
		TableName:   table,
		RecordID:    recordID,
		Action:      action,
		OldData:     audit.JSON(oldData),
		NewData:     audit.JSON(newData),
		Description: description,
	})
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, caller user.Caller, req attendance.CheckRequest) (attendance.CheckResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckResult{}, err
	}

	emp, eff, err := s.effective(ctx, caller.CompanyID, caller.EmployeeID)
	if err != nil {
		return attendance.CheckResult{}, err
	}

	now := s.now()
	date := dateIn(now, eff.Location())

	existing, err := s.todayLog(ctx, caller.CompanyID, emp.ID, date)
	if err != nil {
		return attendance.CheckResult{}, err
	}
	if existing != nil && existing.CheckInTime != nil {
		return attendance.CheckResult{}, attendance.ErrAlreadyCheckedIn
	}

	ev := EvaluateEvidence(req, eff)
	decision := Decide(eff, ev)
	if !decision.Accept {
		return s.queuePending(ctx, emp, attendance.PendingKindCheckIn, date, now, ev, decision)
	}

	l, err := s.recordCheckIn(ctx, emp.CompanyID, emp.ID, eff, date, now, ev)
	if err != nil {
		return attendance.CheckResult{}, err
	}
	resp := attendance.ToLogResponse(l)
	s.audit(ctx, caller.CompanyID, &caller.EmployeeID, "attendance_logs", l.ID, audit.ActionInsert, nil, resp, "Checked in")
	return attendance.CheckResult{Recorded: true, Log: &resp}, nil
}

// recordCheckIn classifies the check-in against the schedule, debits the late
// balance it consumed and writes the log.
func (s *AttendanceServiceImpl) recordCheckIn(ctx context.Context, companyID, employeeID string, eff policy.EffectivePolicy, date, at time.Time, ev attendance.Evidence) (attendance.Log, error) {
	sched, err := ScheduleFor(date, eff)
	if err != nil {
		return attendance.Log{}, err
	}
	nonWorking := s.nonWorkingDay(ctx, eff, date)

	var created attendance.Log
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.todayLog(ctx, companyID, employeeID, date)
		if err != nil {
			return err
		}
		if existing != nil && existing.CheckInTime != nil {
			return attendance.ErrAlreadyCheckedIn
		}

		late := LateResult{Tier: attendance.TierOnTime, DeductionDays: decimal.Zero}
		if !nonWorking {
			err = employee.SwapWithRetry(ctx, func(ctx context.Context) (bool, error) {
				emp, err := s.employees.GetByID(ctx, companyID, employeeID)
				if err != nil {
					return false, err
				}
				late = ClassifyLateness(at, sched.Start, emp.MonthlyLateBalanceMinutes, eff.CompanyPolicy)
				if late.BalanceUsed == 0 {
					return true, nil
				}
				return s.employees.CompareAndSwapLateBalance(ctx, companyID, employeeID, emp.MonthlyLateBalanceMinutes, late.RemainingBalance)
			})
			if err != nil {
				return err
			}
		}

		checkIn := at
		l := attendance.Log{
			CompanyID:                   companyID,
			EmployeeID:                  employeeID,
			Date:                        date,
			CheckInTime:                 &checkIn,
			Status:                      attendance.LogStatusCheckedIn,
			LateMinutes:                 late.LateMinutes,
			LateExcessMinutes:           late.ExcessMinutes,
			LateTier:                    late.Tier,
			LateDeductionDays:           late.DeductionDays,
			EarlyDepartureDeductionDays: decimal.Zero,
			CheckInLatitude:             ev.Latitude,
			CheckInLongitude:            ev.Longitude,
			CheckInIP:                   ev.IPAddress,
		}
		if existing != nil {
			l.ID = existing.ID
			created, err = s.logs.Update(ctx, l)
		} else {
			created, err = s.logs.Create(ctx, l)
		}
		if err != nil {
			return fmt.Errorf("failed to save attendance log: %w", err)
		}
		return nil
	})
	return created, err
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, caller user.Caller, req attendance.CheckRequest) (attendance.CheckResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckResult{}, err
	}

	emp, eff, err := s.effective(ctx, caller.CompanyID, caller.EmployeeID)
	if err != nil {
		return attendance.CheckResult{}, err
	}

	now := s.now()
	date := dateIn(now, eff.Location())

	l, err := s.todayLog(ctx, caller.CompanyID, emp.ID, date)
	if err != nil {
		return attendance.CheckResult{}, err
	}
	if l == nil || l.CheckInTime == nil {
		return attendance.CheckResult{}, attendance.ErrNotCheckedIn
	}
	if l.CheckOutTime != nil {
		return attendance.CheckResult{}, attendance.ErrAlreadyCheckedOut
	}

	ev := EvaluateEvidence(req, eff)
	decision := Decide(eff, ev)
	if !decision.Accept {
		return s.queuePending(ctx, emp, attendance.PendingKindCheckOut, date, now, ev, decision)
	}

	before := attendance.ToLogResponse(*l)
	updated, err := s.recordCheckOut(ctx, emp.CompanyID, emp.ID, eff, date, now)
	if err != nil {
		return attendance.CheckResult{}, err
	}
	resp := attendance.ToLogResponse(updated)
	s.audit(ctx, caller.CompanyID, &caller.EmployeeID, "attendance_logs", updated.ID, audit.ActionUpdate, before, resp, "Checked out")
	return attendance.CheckResult{Recorded: true, Log: &resp}, nil
}

// recordCheckOut closes the day: an open break ends at check-out, early
// departure is charged or absorbed, and worked and overtime minutes are fixed.
func (s *AttendanceServiceImpl) recordCheckOut(ctx context.Context, companyID, employeeID string, eff policy.EffectivePolicy, date, at time.Time) (attendance.Log, error) {
	sched, err := ScheduleFor(date, eff)
	if err != nil {
		return attendance.Log{}, err
	}
	nonWorking := s.nonWorkingDay(ctx, eff, date)

	var updated attendance.Log
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.todayLog(ctx, companyID, employeeID, date)
		if err != nil {
			return err
		}
		if l == nil || l.CheckInTime == nil {
			return attendance.ErrNotCheckedIn
		}
		if l.CheckOutTime != nil {
			return attendance.ErrAlreadyCheckedOut
		}

		if l.BreakStartedAt != nil {
			l.BreakMinutes += minutesBetween(*l.BreakStartedAt, at)
			l.BreakStartedAt = nil
		}

		var early EarlyResult
		if !nonWorking {
			err = employee.SwapWithRetry(ctx, func(ctx context.Context) (bool, error) {
				emp, err := s.employees.GetByID(ctx, companyID, employeeID)
				if err != nil {
					return false, err
				}
				early = ClassifyEarlyDeparture(at, sched.End, emp.MonthlyLateBalanceMinutes, eff.CompanyPolicy)
				if early.BalanceUsed == 0 {
					return true, nil
				}
				return s.employees.CompareAndSwapLateBalance(ctx, companyID, employeeID, emp.MonthlyLateBalanceMinutes, early.RemainingBalance)
			})
			if err != nil {
				return err
			}
			l.OvertimeMinutes = minutesBetween(sched.End, at)
		}

		breakMinutes := l.BreakMinutes
		if breakMinutes == 0 {
			breakMinutes = sched.BreakMinutes
		}

		checkOut := at
		l.CheckOutTime = &checkOut
		l.Status = attendance.LogStatusCheckedOut
		l.EarlyDepartureMinutes = early.ShortfallMinutes
		l.EarlyDepartureDeductionDays = decimal.Zero
		if early.Deducted {
			l.EarlyDepartureDeductionDays = early.DeductionDays
			if !l.LateTier.IsLate() {
				l.LateTier = attendance.TierEarlyDeparture
			}
		}
		l.WorkedMinutes = WorkedMinutes(*l.CheckInTime, at, breakMinutes)

		updated, err = s.logs.Update(ctx, *l)
		if err != nil {
			return fmt.Errorf("failed to update attendance log: %w", err)
		}
		return nil
	})
	return updated, err
}

func (s *AttendanceServiceImpl) queuePending(ctx context.Context, emp employee.Employee, kind attendance.PendingKind, date, now time.Time, ev attendance.Evidence, d Decision) (attendance.CheckResult, error) {
	open, err := s.pending.FindOpen(ctx, emp.CompanyID, emp.ID, kind, date)
	if err != nil {
		return attendance.CheckResult{}, fmt.Errorf("failed to look up pending attendance: %w", err)
	}
	if open != nil {
		return attendance.CheckResult{}, attendance.ErrPendingAlreadyExists
	}

	p, err := s.pending.Create(ctx, attendance.PendingAttendance{
		CompanyID:         emp.CompanyID,
		EmployeeID:        emp.ID,
		Kind:              kind,
		Date:              date,
		RequestedAt:       now,
		Evidence:          ev,
		VerificationLevel: d.Level,
		RequiredMode:      d.Mode,
		ApproverID:        d.ApproverID,
		Status:            attendance.PendingStatusPending,
	})
	if err != nil {
		return attendance.CheckResult{}, fmt.Errorf("failed to create pending attendance: %w", err)
	}

	resp := attendance.ToPendingResponse(p)
	s.audit(ctx, emp.CompanyID, &emp.ID, audit.KindPendingAttendance.Table(), p.ID, audit.ActionInsert, nil, resp,
		fmt.Sprintf("Queued %s for verification", kind))

	if p.ApproverID != nil {
		s.notifier.Notify(ctx, notification.CreateNotificationRequest{
			CompanyID:   emp.CompanyID,
			RecipientID: *p.ApproverID,
			SenderID:    &emp.ID,
			Type:        notification.TypeAttendancePending,
			Title:       "Attendance waiting for approval",
			Message:     fmt.Sprintf("%s submitted a %s that needs your decision", emp.FullName, kind),
			Data:        map[string]interface{}{"pending_id": p.ID},
		})
	}

	return attendance.CheckResult{Recorded: false, Pending: &resp}, nil
}

// StartBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) StartBreak(ctx context.Context, caller user.Caller) (attendance.LogResponse, error) {
	return s.moveBreak(ctx, caller, true)
}

// EndBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EndBreak(ctx context.Context, caller user.Caller) (attendance.LogResponse, error) {
	return s.moveBreak(ctx, caller, false)
}

func (s *AttendanceServiceImpl) moveBreak(ctx context.Context, caller user.Caller, start bool) (attendance.LogResponse, error) {
	_, eff, err := s.effective(ctx, caller.CompanyID, caller.EmployeeID)
	if err != nil {
		return attendance.LogResponse{}, err
	}

	now := s.now()
	description := "Started break"
	if !start {
		description = "Ended break"
	}

	var before attendance.LogResponse
	var updated attendance.Log
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.todayLog(ctx, caller.CompanyID, caller.EmployeeID, dateIn(now, eff.Location()))
		if err != nil {
			return err
		}
		if l == nil || l.CheckInTime == nil {
			return attendance.ErrNotCheckedIn
		}
		before = attendance.ToLogResponse(*l)

		switch {
		case l.Status == attendance.LogStatusCheckedOut:
			return attendance.ErrAlreadyCheckedOut
		case start && l.Status == attendance.LogStatusOnBreak:
			return attendance.ErrAlreadyOnBreak
		case !start && l.Status != attendance.LogStatusOnBreak:
			return attendance.ErrNotOnBreak
		}

		if start {
			l.BreakStartedAt = &now
			l.Status = attendance.LogStatusOnBreak
		} else {
			l.BreakMinutes += minutesBetween(*l.BreakStartedAt, now)
			l.BreakStartedAt = nil
			l.Status = attendance.LogStatusCheckedIn
		}

		updated, err = s.logs.Update(ctx, *l)
		if err != nil {
			return fmt.Errorf("failed to update attendance log: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.LogResponse{}, err
	}
	resp := attendance.ToLogResponse(updated)
	s.audit(ctx, caller.CompanyID, &caller.EmployeeID, "attendance_logs", updated.ID, audit.ActionUpdate, before, resp, description)
	return resp, nil
}

// Today implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Today(ctx context.Context, caller user.Caller) (*attendance.LogResponse, error) {
	_, eff, err := s.effective(ctx, caller.CompanyID, caller.EmployeeID)
	if err != nil {
		return nil, err
	}
	l, err := s.todayLog(ctx, caller.CompanyID, caller.EmployeeID, dateIn(s.now(), eff.Location()))
	if err != nil || l == nil {
		return nil, err
	}
	resp := attendance.ToLogResponse(*l)
	return &resp, nil
}

// ListMy implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListMy(ctx context.Context, caller user.Caller, filter attendance.ListLogsFilter) ([]attendance.LogResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	from := time.Date(s.now().Year(), s.now().Month(), 1, 0, 0, 0, 0, time.UTC)
	if filter.Month != "" {
		from, _ = time.Parse("2006-01", filter.Month)
	}
	to := from.AddDate(0, 1, -1)

	logs, err := s.logs.ListByEmployeeRange(ctx, caller.CompanyID, caller.EmployeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	out := make([]attendance.LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, attendance.ToLogResponse(l))
	}
	return out, nil
}

// ListPending implements attendance.AttendanceService. Holders of
// attendance.approve see every open request, others only those addressed to them.
func (s *AttendanceServiceImpl) ListPending(ctx context.Context, caller user.Caller) ([]attendance.PendingResponse, error) {
	status := attendance.PendingStatusPending
	rows, err := s.pending.List(ctx, caller.CompanyID, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending attendance: %w", err)
	}

	seeAll := caller.HasPermission(user.PermissionAttendanceApprove)
	out := make([]attendance.PendingResponse, 0, len(rows))
	for _, p := range rows {
		if seeAll || (p.ApproverID != nil && *p.ApproverID == caller.EmployeeID) {
			out = append(out, attendance.ToPendingResponse(p))
		}
	}
	return out, nil
}

// canDecide: a named approver is the only decider besides admins; without
// one, anyone holding attendance.approve may decide.
func canDecide(caller user.Caller, p attendance.PendingAttendance) error {
	if caller.EmployeeID == p.EmployeeID && !caller.IsAdmin() {
		return attendance.ErrNotDesignatedApprover
	}
	if p.ApproverID != nil {
		if *p.ApproverID == caller.EmployeeID || caller.IsAdmin() {
			return nil
		}
		return attendance.ErrNotDesignatedApprover
	}
	return user.AccessManagerWithPermission(user.PermissionAttendanceApprove).Authorize(caller)
}

// ApprovePending implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ApprovePending(ctx context.Context, caller user.Caller, id string, req attendance.ReviewPendingRequest) (attendance.PendingResponse, error) {
	return s.decide(ctx, caller, id, attendance.PendingStatusApproved, req.Note)
}

// RejectPending implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RejectPending(ctx context.Context, caller user.Caller, id string, req attendance.ReviewPendingRequest) (attendance.PendingResponse, error) {
	return s.decide(ctx, caller, id, attendance.PendingStatusRejected, req.Note)
}

func (s *AttendanceServiceImpl) decide(ctx context.Context, caller user.Caller, id string, status attendance.PendingStatus, note *string) (attendance.PendingResponse, error) {
	p, err := s.pending.GetByID(ctx, caller.CompanyID, id)
	if err != nil {
		return attendance.PendingResponse{}, err
	}
	if p.Status.IsTerminal() {
		return attendance.PendingResponse{}, attendance.ErrPendingAlreadyDecided
	}
	if err := canDecide(caller, p); err != nil {
		return attendance.PendingResponse{}, err
	}

	_, eff, err := s.effective(ctx, p.CompanyID, p.EmployeeID)
	if err != nil {
		return attendance.PendingResponse{}, err
	}

	now := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.pending.Decide(ctx, p.CompanyID, p.ID, status, &caller.EmployeeID, note, now)
		if err != nil {
			return fmt.Errorf("failed to decide pending attendance: %w", err)
		}
		if !ok {
			return attendance.ErrPendingAlreadyDecided
		}
		if status != attendance.PendingStatusApproved {
			return nil
		}

		// the decision applies at the time the employee actually checked
		switch p.Kind {
		case attendance.PendingKindCheckIn:
			_, err = s.recordCheckIn(ctx, p.CompanyID, p.EmployeeID, eff, p.Date, p.RequestedAt, p.Evidence)
		case attendance.PendingKindCheckOut:
			_, err = s.recordCheckOut(ctx, p.CompanyID, p.EmployeeID, eff, p.Date, p.RequestedAt)
		}
		return err
	})
	if err != nil {
		return attendance.PendingResponse{}, err
	}

	before := attendance.ToPendingResponse(p)
	p.Status = status
	p.ReviewedBy = &caller.EmployeeID
	p.ReviewedAt = &now
	p.ReviewNote = note
	resp := attendance.ToPendingResponse(p)

	nType, verb := notification.TypeAttendanceApproved, "approved"
	if status != attendance.PendingStatusApproved {
		nType, verb = notification.TypeAttendanceRejected, "rejected"
	}
	s.audit(ctx, p.CompanyID, &caller.EmployeeID, audit.KindPendingAttendance.Table(), p.ID, audit.ActionUpdate, before, resp,
		fmt.Sprintf("Pending %s %s", p.Kind, verb))
	s.notifier.Notify(ctx, notification.CreateNotificationRequest{
		CompanyID:   p.CompanyID,
		RecipientID: p.EmployeeID,
		SenderID:    &caller.EmployeeID,
		Type:        nType,
		Title:       fmt.Sprintf("Attendance %s", verb),
		Message:     fmt.Sprintf("Your %s on %s was %s", p.Kind, p.Date.Format("2006-01-02"), verb),
		Data:        map[string]interface{}{"pending_id": p.ID},
	})

	return resp, nil
}

// AutoRejectExpired implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) AutoRejectExpired(ctx context.Context, companyID string, now time.Time) (int, error) {
	p, err := s.policies.Get(ctx, companyID)
	if err != nil {
		return 0, err
	}
	if p.PendingAutoRejectHours <= 0 {
		return 0, nil
	}

	cutoff := now.Add(-time.Duration(p.PendingAutoRejectHours) * time.Hour)
	expired, err := s.pending.ListExpired(ctx, companyID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired pending attendance: %w", err)
	}

	note := fmt.Sprintf("No decision within %d hours", p.PendingAutoRejectHours)
	rejected := 0
	for _, row := range expired {
		ok, err := s.pending.Decide(ctx, companyID, row.ID, attendance.PendingStatusAutoRejected, nil, &note, now)
		if err != nil {
			slog.ErrorContext(ctx, "auto-reject failed", "company_id", companyID, "pending_id", row.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		rejected++

		s.audit(ctx, companyID, nil, audit.KindPendingAttendance.Table(), row.ID, audit.ActionUpdate, nil, nil, note)
		s.notifier.Notify(ctx, notification.CreateNotificationRequest{
			CompanyID:   companyID,
			RecipientID: row.EmployeeID,
			Type:        notification.TypeAttendanceRejected,
			Title:       "Attendance auto-rejected",
			Message:     fmt.Sprintf("Your %s on %s was not reviewed in time", row.Kind, row.Date.Format("2006-01-02")),
			Data:        map[string]interface{}{"pending_id": row.ID},
		})
	}
	return rejected, nil
}
