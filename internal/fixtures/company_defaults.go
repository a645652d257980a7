package fixtures

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/shopspring/decimal"
)

// ==========================================
// EMPLOYEE DEFAULTS
// ==========================================

const (
	DefaultLeaveBalance          = 21
	DefaultEmergencyLeaveBalance = 7
)

// ==========================================
// DEFAULT COMPANY POLICY
// ==========================================

// DefaultCompanyPolicy returns the policy a company runs with until an admin saves its own.
func DefaultCompanyPolicy(companyID string) policy.CompanyPolicy {
	return policy.CompanyPolicy{
		CompanyID: companyID,

		DailyLateAllowanceMinutes:   15,
		MonthlyLateAllowanceMinutes: 60,
		LateTier1Deduction:          decimal.NewFromFloat(0.25),
		LateTier2Deduction:          decimal.NewFromFloat(0.5),
		LateTier3Deduction:          decimal.NewFromInt(1),

		AbsenceWithoutPermissionDeduction: decimal.NewFromInt(1),
		MaxExcusedAbsenceDays:             3,
		AutoAbsentAfterHours:              4,

		OvertimeMultiplier: decimal.NewFromFloat(1.5),

		EarlyDepartureThresholdMinutes: 30,
		EarlyDepartureDeduction:        decimal.NewFromFloat(0.5),
		EarlyDepartureGraceMinutes:     10,

		AnnualLeaveDays:    DefaultLeaveBalance,
		EmergencyLeaveDays: DefaultEmergencyLeaveBalance,

		VerificationLevel:      policy.LevelNone,
		Level3Mode:             policy.ModeLocation | policy.ModeSelfie,
		AllowedWifiIPs:         []string{},
		LocationRadiusMeters:   100,
		PendingAutoRejectHours: 24,

		WorkStartTime:        "09:00",
		WorkEndTime:          "17:00",
		BreakDurationMinutes: 60,
		WeekendDays:          []time.Weekday{time.Saturday, time.Sunday},
		Timezone:             "Asia/Jakarta",
		HolidayCountryCode:   "ID",
	}
}
