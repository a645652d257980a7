package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyPolicy holds the per-company tunables. Deductions are fractional days.
type CompanyPolicy struct {
	CompanyID string

	// Lateness
	DailyLateAllowanceMinutes   int
	MonthlyLateAllowanceMinutes int
	LateTier1Deduction          decimal.Decimal // excess < 15 minutes
	LateTier2Deduction          decimal.Decimal // excess 15-30 minutes
	LateTier3Deduction          decimal.Decimal // excess > 30 minutes

	// Absence
	AbsenceWithoutPermissionDeduction decimal.Decimal
	MaxExcusedAbsenceDays             int
	AutoAbsentAfterHours              int

	OvertimeMultiplier decimal.Decimal

	// Early departure
	EarlyDepartureThresholdMinutes int
	EarlyDepartureDeduction        decimal.Decimal
	EarlyDepartureGraceMinutes     int

	// Leave
	AnnualLeaveDays    int
	EmergencyLeaveDays int

	// Verification
	VerificationLevel      VerificationLevel
	Level3Mode             VerificationMode
	AllowedWifiIPs         []string
	OfficeLatitude         *float64
	OfficeLongitude        *float64
	LocationRadiusMeters   int
	PendingAutoRejectHours int

	// Schedule
	WorkStartTime        string // "HH:MM", company local time
	WorkEndTime          string
	BreakDurationMinutes int
	WeekendDays          []time.Weekday
	Timezone             string
	HolidayCountryCode   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsWeekend reports whether d falls on one of the configured weekend days.
func (p CompanyPolicy) IsWeekend(d time.Weekday) bool {
	for _, w := range p.WeekendDays {
		if w == d {
			return true
		}
	}
	return false
}

// Location returns the policy timezone, UTC when unset or unknown.
func (p CompanyPolicy) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EmployeeOverride carries the nullable per-employee fields that beat company defaults.
type EmployeeOverride struct {
	ManagerID              *string
	VerificationLevel      *VerificationLevel
	VerificationApproverID *string
	Level3Mode             *VerificationMode
	AllowedWifiIPs         []string // nil means no override
	WorkStartTime          *string
	WorkEndTime            *string
	BreakDurationMinutes   *int
}

// EffectivePolicy is what an operation actually runs with for one employee.
type EffectivePolicy struct {
	CompanyPolicy

	// ApproverID is the level 2 decision maker: explicit override, else direct manager.
	ApproverID *string
}
