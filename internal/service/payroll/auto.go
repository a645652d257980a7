package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	attendancesvc "github.com/cmlabs-hris/hris-policy-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// AutoInput is one employee-month worth of facts to derive auto adjustments from.
type AutoInput struct {
	Employee       employee.Employee
	Policy         policy.EffectivePolicy
	Month          time.Time
	Logs           []attendance.Log
	ApprovedLeaves []leave.LeaveRequest
	// PendingDates are days with a check-in still waiting for review.
	PendingDates   []time.Time
	Holidays       holiday.Set
	Now            time.Time
}

// BuildAutoAdjustments derives the system rows for a month. Every row carries a
// source key unique per employee, so inserting the same output twice is a no-op.
// Freelancers are paid for logged hours only, so they get no overtime,
// absence or unexcused rows.
func BuildAutoAdjustments(in AutoInput) []payroll.SalaryAdjustment {
	month := payroll.MonthStart(in.Month)
	daily := in.Employee.DailyRate()
	hourly := in.Employee.HourlyEquivalent()

	var rows []payroll.SalaryAdjustment
	add := func(key, reason string, bonus, deduction decimal.Decimal) {
		k := key
		rows = append(rows, payroll.SalaryAdjustment{
			CompanyID:       in.Employee.CompanyID,
			EmployeeID:      in.Employee.ID,
			Month:           month,
			Bonus:           bonus.Round(2),
			Deduction:       deduction.Round(2),
			IsAutoGenerated: true,
			SourceKey:       &k,
			Reason:          reason,
		})
	}

	logged := make(map[string]bool, len(in.Logs))
	for _, l := range in.Logs {
		day := l.Date.Format(dateLayout)
		if l.CheckInTime != nil {
			logged[day] = true
		}
		if l.LateDeductionDays.IsPositive() {
			add("late:"+day, fmt.Sprintf("Late %d minutes (%s)", l.LateExcessMinutes, l.LateTier),
				decimal.Zero, l.LateDeductionDays.Mul(daily))
		}
		if l.EarlyDepartureDeductionDays.IsPositive() {
			add("early:"+day, fmt.Sprintf("Left %d minutes early", l.EarlyDepartureMinutes),
				decimal.Zero, l.EarlyDepartureDeductionDays.Mul(daily))
		}
		if l.OvertimeMinutes > 0 && !in.Employee.IsFreelancer {
			hours := decimal.NewFromInt(int64(l.OvertimeMinutes)).Div(sixty)
			add("overtime:"+day, fmt.Sprintf("Overtime %d minutes", l.OvertimeMinutes),
				hours.Mul(in.Policy.OvertimeMultiplier).Mul(hourly), decimal.Zero)
		}
	}

	onLeave := make(map[string]leave.LeaveType)
	for _, r := range in.ApprovedLeaves {
		for d := r.StartDate; !d.After(r.EndDate); d = d.AddDate(0, 0, 1) {
			onLeave[d.Format(dateLayout)] = r.LeaveType
		}
	}

	if in.Employee.IsFreelancer {
		return rows
	}

	pending := make(map[string]bool, len(in.PendingDates))
	for _, d := range in.PendingDates {
		pending[d.Format(dateLayout)] = true
	}

	loc := in.Policy.Location()
	var hired time.Time
	if !in.Employee.CreatedAt.IsZero() {
		c := in.Employee.CreatedAt.In(loc)
		hired = time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, loc)
	}

	excusedUsed := 0
	for d := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc); d.Month() == month.Month(); d = d.AddDate(0, 0, 1) {
		day := d.Format(dateLayout)
		if d.Before(hired) || in.Policy.IsWeekend(d.Weekday()) || in.Holidays.Contains(d) || logged[day] || pending[day] {
			continue
		}

		if t, ok := onLeave[day]; ok {
			if t != leave.LeaveTypePersonal {
				continue
			}
			excusedUsed++
			if excusedUsed > in.Policy.MaxExcusedAbsenceDays {
				add("unexcused:"+day, "Personal leave beyond the excused allowance",
					decimal.Zero, in.Policy.AbsenceWithoutPermissionDeduction.Mul(daily))
			}
			continue
		}

		sched, err := attendancesvc.ScheduleFor(d, in.Policy)
		if err != nil {
			continue
		}
		if attendancesvc.IsAbsent(nil, sched.Start, in.Now, in.Policy.AutoAbsentAfterHours, false) {
			add("absent:"+day, "Absent without permission",
				decimal.Zero, in.Policy.AbsenceWithoutPermissionDeduction.Mul(daily))
		}
	}

	return rows
}
