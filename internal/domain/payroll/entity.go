package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryAdjustment is an immutable bonus/deduction line for one employee-month.
type SalaryAdjustment struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	Month           time.Time // first day of month
	Bonus           decimal.Decimal
	Deduction       decimal.Decimal
	IsAutoGenerated bool
	// SourceKey identifies what produced an auto row ("late:2024-05-03"), unique per employee.
	SourceKey *string
	Reason    string
	CreatedBy *string
	CreatedAt time.Time
}

// Summary is the aggregated pay for one employee-month.
type Summary struct {
	EmployeeID     string
	Month          time.Time
	IsFreelancer   bool
	BaseSalary     decimal.Decimal
	WorkedMinutes  int
	HourlyRate     decimal.Decimal
	Earned         decimal.Decimal // base salary, or worked hours x hourly rate
	TotalBonus     decimal.Decimal
	ManualBonus    decimal.Decimal
	TotalDeduction decimal.Decimal
	NetSalary      decimal.Decimal
}

// MonthStart normalizes t to the first day of its month, UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
