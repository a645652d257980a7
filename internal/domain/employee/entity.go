package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/shopspring/decimal"
)

type SalaryType string

const (
	SalaryTypeMonthly SalaryType = "monthly"
	SalaryTypeDaily   SalaryType = "daily"
)

type Employee struct {
	ID        string
	CompanyID string
	UserID    *string
	FullName  string
	Email     string
	Role      user.Role
	ManagerID *string

	// Compensation
	SalaryType   SalaryType
	BaseSalary   decimal.Decimal
	IsFreelancer bool
	HourlyRate   decimal.Decimal

	// Balances
	MonthlyLateBalanceMinutes int
	LeaveBalance              int
	EmergencyLeaveBalance     int
	PointsBalance             int

	// Overrides, nil means "use the company policy"
	VerificationLevel      *policy.VerificationLevel
	VerificationApproverID *string
	Level3Mode             *policy.VerificationMode
	AllowedWifiIPs         []string
	WorkStartTime          *string
	WorkEndTime            *string
	BreakDurationMinutes   *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Override extracts the fields policy.Resolve layers over the company defaults.
func (e Employee) Override() policy.EmployeeOverride {
	return policy.EmployeeOverride{
		ManagerID:              e.ManagerID,
		VerificationLevel:      e.VerificationLevel,
		VerificationApproverID: e.VerificationApproverID,
		Level3Mode:             e.Level3Mode,
		AllowedWifiIPs:         e.AllowedWifiIPs,
		WorkStartTime:          e.WorkStartTime,
		WorkEndTime:            e.WorkEndTime,
		BreakDurationMinutes:   e.BreakDurationMinutes,
	}
}

// DailyRate is the pay for one scheduled day, used to price fractional-day deductions.
func (e Employee) DailyRate() decimal.Decimal {
	if e.IsFreelancer {
		return e.HourlyRate.Mul(decimal.NewFromInt(8))
	}
	if e.SalaryType == SalaryTypeDaily {
		return e.BaseSalary
	}
	return e.BaseSalary.Div(decimal.NewFromInt(30))
}

// HourlyEquivalent is the hourly pay used for overtime.
func (e Employee) HourlyEquivalent() decimal.Decimal {
	if e.IsFreelancer {
		return e.HourlyRate
	}
	return e.DailyRate().Div(decimal.NewFromInt(8))
}
