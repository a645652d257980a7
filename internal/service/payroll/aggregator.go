package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// Aggregate computes one employee-month from its adjustment rows and attendance logs.
// It holds no state, so re-running over the same rows gives the same totals.
//
//	salaried:   net = earned + total bonus - total deduction
//	freelancer: net = worked hours x hourly rate + manual bonus - total deduction
//
// Earned is the base salary for monthly pay and base x days worked for daily pay.
func Aggregate(emp employee.Employee, month time.Time, adjustments []payroll.SalaryAdjustment, logs []attendance.Log) payroll.Summary {
	s := payroll.Summary{
		EmployeeID:     emp.ID,
		Month:          payroll.MonthStart(month),
		IsFreelancer:   emp.IsFreelancer,
		BaseSalary:     emp.BaseSalary,
		HourlyRate:     emp.HourlyRate,
		TotalBonus:     decimal.Zero,
		ManualBonus:    decimal.Zero,
		TotalDeduction: decimal.Zero,
	}

	for _, a := range adjustments {
		s.TotalBonus = s.TotalBonus.Add(a.Bonus)
		s.TotalDeduction = s.TotalDeduction.Add(a.Deduction)
		if !a.IsAutoGenerated {
			s.ManualBonus = s.ManualBonus.Add(a.Bonus)
		}
	}

	daysWorked := 0
	for _, l := range logs {
		s.WorkedMinutes += l.WorkedMinutes
		if l.CheckInTime != nil {
			daysWorked++
		}
	}

	switch {
	case emp.IsFreelancer:
		s.Earned = decimal.NewFromInt(int64(s.WorkedMinutes)).Div(sixty).Mul(emp.HourlyRate).Round(2)
		s.NetSalary = s.Earned.Add(s.ManualBonus).Sub(s.TotalDeduction)
	case emp.SalaryType == employee.SalaryTypeDaily:
		s.Earned = emp.BaseSalary.Mul(decimal.NewFromInt(int64(daysWorked)))
		s.NetSalary = s.Earned.Add(s.TotalBonus).Sub(s.TotalDeduction)
	default:
		s.Earned = emp.BaseSalary
		s.NetSalary = s.Earned.Add(s.TotalBonus).Sub(s.TotalDeduction)
	}

	return s
}
