package policy

import (
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
)

// Resolve layers an employee's overrides on top of the company defaults.
// Every nullable override that is set wins, nothing else changes.
func Resolve(override EmployeeOverride, company CompanyPolicy) EffectivePolicy {
	eff := EffectivePolicy{CompanyPolicy: company}
	eff.AllowedWifiIPs = append([]string(nil), company.AllowedWifiIPs...)
	eff.WeekendDays = append(eff.WeekendDays[:0:0], company.WeekendDays...)

	if override.VerificationLevel != nil {
		eff.VerificationLevel = *override.VerificationLevel
	}
	if override.Level3Mode != nil {
		eff.Level3Mode = *override.Level3Mode
	}
	if override.AllowedWifiIPs != nil {
		eff.AllowedWifiIPs = append([]string(nil), override.AllowedWifiIPs...)
	}
	if override.WorkStartTime != nil {
		eff.WorkStartTime = *override.WorkStartTime
	}
	if override.WorkEndTime != nil {
		eff.WorkEndTime = *override.WorkEndTime
	}
	if override.BreakDurationMinutes != nil {
		eff.BreakDurationMinutes = *override.BreakDurationMinutes
	}

	switch {
	case override.VerificationApproverID != nil:
		eff.ApproverID = override.VerificationApproverID
	case override.ManagerID != nil:
		eff.ApproverID = override.ManagerID
	}

	return eff
}

// Validate checks the cross-field invariants of a company policy.
func (p CompanyPolicy) Validate() error {
	var errs validator.ValidationErrors

	if p.DailyLateAllowanceMinutes < 0 {
		errs.Add("daily_late_allowance_minutes", "must not be negative")
	}
	if p.MonthlyLateAllowanceMinutes < 0 {
		errs.Add("monthly_late_allowance_minutes", "must not be negative")
	}
	for field, d := range map[string]interface{ IsNegative() bool }{
		"late_tier1_deduction":                 p.LateTier1Deduction,
		"late_tier2_deduction":                 p.LateTier2Deduction,
		"late_tier3_deduction":                 p.LateTier3Deduction,
		"absence_without_permission_deduction": p.AbsenceWithoutPermissionDeduction,
		"early_departure_deduction":            p.EarlyDepartureDeduction,
		"overtime_multiplier":                  p.OvertimeMultiplier,
	} {
		if d.IsNegative() {
			errs.Add(field, "must not be negative")
		}
	}
	if p.AnnualLeaveDays < 0 {
		errs.Add("annual_leave_days", "must not be negative")
	}
	if p.EmergencyLeaveDays < 0 {
		errs.Add("emergency_leave_days", "must not be negative")
	}
	if p.EmergencyLeaveDays > p.AnnualLeaveDays {
		errs.Add("emergency_leave_days", "must not exceed annual_leave_days")
	}
	if !p.VerificationLevel.Valid() {
		errs.Add("attendance_verification_level", "must be 1, 2 or 3")
	}
	if p.VerificationLevel == LevelEvidence && !p.Level3Mode.Valid() {
		errs.Add("level3_verification_mode", "is required when verification level is 3")
	}
	for i, ip := range p.AllowedWifiIPs {
		if !validator.IsValidIPOrPrefix(ip) {
			errs.Add(fmt.Sprintf("allowed_wifi_ips[%d]", i), "must be an IP address or CIDR prefix")
		}
	}
	if !validator.IsValidClock(p.WorkStartTime) {
		errs.Add("work_start_time", "must be HH:MM")
	}
	if !validator.IsValidClock(p.WorkEndTime) {
		errs.Add("work_end_time", "must be HH:MM")
	}
	if p.BreakDurationMinutes < 0 {
		errs.Add("break_duration_minutes", "must not be negative")
	}
	if p.AutoAbsentAfterHours < 0 {
		errs.Add("auto_absent_after_hours", "must not be negative")
	}
	if (p.OfficeLatitude == nil) != (p.OfficeLongitude == nil) {
		errs.Add("office_location", "latitude and longitude must be set together")
	}

	return errs.OrNil()
}
