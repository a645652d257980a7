package policy

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// UpdatePolicyRequest is a partial update; nil fields keep their current value.
type UpdatePolicyRequest struct {
	DailyLateAllowanceMinutes         *int             `json:"daily_late_allowance_minutes,omitempty"`
	MonthlyLateAllowanceMinutes       *int             `json:"monthly_late_allowance_minutes,omitempty"`
	LateTier1Deduction                *decimal.Decimal `json:"late_tier1_deduction,omitempty"`
	LateTier2Deduction                *decimal.Decimal `json:"late_tier2_deduction,omitempty"`
	LateTier3Deduction                *decimal.Decimal `json:"late_tier3_deduction,omitempty"`
	AbsenceWithoutPermissionDeduction *decimal.Decimal `json:"absence_without_permission_deduction,omitempty"`
	MaxExcusedAbsenceDays             *int             `json:"max_excused_absence_days,omitempty"`
	AutoAbsentAfterHours              *int             `json:"auto_absent_after_hours,omitempty"`
	OvertimeMultiplier                *decimal.Decimal `json:"overtime_multiplier,omitempty"`
	EarlyDepartureThresholdMinutes    *int             `json:"early_departure_threshold_minutes,omitempty"`
	EarlyDepartureDeduction           *decimal.Decimal `json:"early_departure_deduction,omitempty"`
	EarlyDepartureGraceMinutes        *int             `json:"early_departure_grace_minutes,omitempty"`
	AnnualLeaveDays                   *int             `json:"annual_leave_days,omitempty"`
	EmergencyLeaveDays                *int             `json:"emergency_leave_days,omitempty"`
	VerificationLevel                 *int             `json:"attendance_verification_level,omitempty"`
	Level3Mode                        *string          `json:"level3_verification_mode,omitempty"`
	AllowedWifiIPs                    []string         `json:"allowed_wifi_ips,omitempty"`
	OfficeLatitude                    *float64         `json:"office_latitude,omitempty"`
	OfficeLongitude                   *float64         `json:"office_longitude,omitempty"`
	LocationRadiusMeters              *int             `json:"location_radius_meters,omitempty"`
	PendingAutoRejectHours            *int             `json:"pending_auto_reject_hours,omitempty"`
	WorkStartTime                     *string          `json:"work_start_time,omitempty"`
	WorkEndTime                       *string          `json:"work_end_time,omitempty"`
	BreakDurationMinutes              *int             `json:"break_duration_minutes,omitempty"`
	WeekendDays                       []int            `json:"weekend_days,omitempty"`
	Timezone                          *string          `json:"timezone,omitempty"`
	HolidayCountryCode                *string          `json:"holiday_country_code,omitempty"`
}

func (r *UpdatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Level3Mode != nil {
		if _, err := ParseVerificationMode(*r.Level3Mode); err != nil {
			errs.Add("level3_verification_mode", "must be a combination of location, selfie, ip in that order")
		}
	}
	for _, d := range r.WeekendDays {
		if d < 0 || d > 6 {
			errs.Add("weekend_days", "must contain values 0 (Sunday) to 6 (Saturday)")
			break
		}
	}
	if r.Timezone != nil {
		if _, err := time.LoadLocation(*r.Timezone); err != nil {
			errs.Add("timezone", "unknown timezone")
		}
	}
	if r.LocationRadiusMeters != nil && *r.LocationRadiusMeters <= 0 {
		errs.Add("location_radius_meters", "must be greater than 0")
	}

	return errs.OrNil()
}

// ApplyTo returns p with every non-nil field of r written over it.
func (r *UpdatePolicyRequest) ApplyTo(p CompanyPolicy) CompanyPolicy {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDec := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&p.DailyLateAllowanceMinutes, r.DailyLateAllowanceMinutes)
	setInt(&p.MonthlyLateAllowanceMinutes, r.MonthlyLateAllowanceMinutes)
	setDec(&p.LateTier1Deduction, r.LateTier1Deduction)
	setDec(&p.LateTier2Deduction, r.LateTier2Deduction)
	setDec(&p.LateTier3Deduction, r.LateTier3Deduction)
	setDec(&p.AbsenceWithoutPermissionDeduction, r.AbsenceWithoutPermissionDeduction)
	setInt(&p.MaxExcusedAbsenceDays, r.MaxExcusedAbsenceDays)
	setInt(&p.AutoAbsentAfterHours, r.AutoAbsentAfterHours)
	setDec(&p.OvertimeMultiplier, r.OvertimeMultiplier)
	setInt(&p.EarlyDepartureThresholdMinutes, r.EarlyDepartureThresholdMinutes)
	setDec(&p.EarlyDepartureDeduction, r.EarlyDepartureDeduction)
	setInt(&p.EarlyDepartureGraceMinutes, r.EarlyDepartureGraceMinutes)
	setInt(&p.AnnualLeaveDays, r.AnnualLeaveDays)
	setInt(&p.EmergencyLeaveDays, r.EmergencyLeaveDays)
	setInt(&p.LocationRadiusMeters, r.LocationRadiusMeters)
	setInt(&p.PendingAutoRejectHours, r.PendingAutoRejectHours)
	setInt(&p.BreakDurationMinutes, r.BreakDurationMinutes)

	if r.VerificationLevel != nil {
		p.VerificationLevel = VerificationLevel(*r.VerificationLevel)
	}
	if r.Level3Mode != nil {
		if m, err := ParseVerificationMode(*r.Level3Mode); err == nil {
			p.Level3Mode = m
		}
	}
	if r.AllowedWifiIPs != nil {
		p.AllowedWifiIPs = r.AllowedWifiIPs
	}
	if r.OfficeLatitude != nil {
		p.OfficeLatitude = r.OfficeLatitude
	}
	if r.OfficeLongitude != nil {
		p.OfficeLongitude = r.OfficeLongitude
	}
	if r.WorkStartTime != nil {
		p.WorkStartTime = *r.WorkStartTime
	}
	if r.WorkEndTime != nil {
		p.WorkEndTime = *r.WorkEndTime
	}
	if r.WeekendDays != nil {
		days := make([]time.Weekday, 0, len(r.WeekendDays))
		for _, d := range r.WeekendDays {
			days = append(days, time.Weekday(d))
		}
		p.WeekendDays = days
	}
	if r.Timezone != nil {
		p.Timezone = *r.Timezone
	}
	if r.HolidayCountryCode != nil {
		p.HolidayCountryCode = *r.HolidayCountryCode
	}

	return p
}

type PolicyResponse struct {
	CompanyID                         string           `json:"company_id"`
	DailyLateAllowanceMinutes         int              `json:"daily_late_allowance_minutes"`
	MonthlyLateAllowanceMinutes       int              `json:"monthly_late_allowance_minutes"`
	LateTier1Deduction                decimal.Decimal  `json:"late_tier1_deduction"`
	LateTier2Deduction                decimal.Decimal  `json:"late_tier2_deduction"`
	LateTier3Deduction                decimal.Decimal  `json:"late_tier3_deduction"`
	AbsenceWithoutPermissionDeduction decimal.Decimal  `json:"absence_without_permission_deduction"`
	MaxExcusedAbsenceDays             int              `json:"max_excused_absence_days"`
	AutoAbsentAfterHours              int              `json:"auto_absent_after_hours"`
	OvertimeMultiplier                decimal.Decimal  `json:"overtime_multiplier"`
	EarlyDepartureThresholdMinutes    int              `json:"early_departure_threshold_minutes"`
	EarlyDepartureDeduction           decimal.Decimal  `json:"early_departure_deduction"`
	EarlyDepartureGraceMinutes        int              `json:"early_departure_grace_minutes"`
	AnnualLeaveDays                   int              `json:"annual_leave_days"`
	EmergencyLeaveDays                int              `json:"emergency_leave_days"`
	VerificationLevel                 int              `json:"attendance_verification_level"`
	Level3Mode                        VerificationMode `json:"level3_verification_mode"`
	AllowedWifiIPs                    []string         `json:"allowed_wifi_ips"`
	OfficeLatitude                    *float64         `json:"office_latitude,omitempty"`
	OfficeLongitude                   *float64         `json:"office_longitude,omitempty"`
	LocationRadiusMeters              int              `json:"location_radius_meters"`
	PendingAutoRejectHours            int              `json:"pending_auto_reject_hours"`
	WorkStartTime                     string           `json:"work_start_time"`
	WorkEndTime                       string           `json:"work_end_time"`
	BreakDurationMinutes              int              `json:"break_duration_minutes"`
	WeekendDays                       []int            `json:"weekend_days"`
	Timezone                          string           `json:"timezone"`
	HolidayCountryCode                string           `json:"holiday_country_code"`
}

func ToResponse(p CompanyPolicy) PolicyResponse {
	weekend := make([]int, 0, len(p.WeekendDays))
	for _, d := range p.WeekendDays {
		weekend = append(weekend, int(d))
	}
	return PolicyResponse{
		CompanyID:                         p.CompanyID,
		DailyLateAllowanceMinutes:         p.DailyLateAllowanceMinutes,
		MonthlyLateAllowanceMinutes:       p.MonthlyLateAllowanceMinutes,
		LateTier1Deduction:                p.LateTier1Deduction,
		LateTier2Deduction:                p.LateTier2Deduction,
		LateTier3Deduction:                p.LateTier3Deduction,
		AbsenceWithoutPermissionDeduction: p.AbsenceWithoutPermissionDeduction,
		MaxExcusedAbsenceDays:             p.MaxExcusedAbsenceDays,
		AutoAbsentAfterHours:              p.AutoAbsentAfterHours,
		OvertimeMultiplier:                p.OvertimeMultiplier,
		EarlyDepartureThresholdMinutes:    p.EarlyDepartureThresholdMinutes,
		EarlyDepartureDeduction:           p.EarlyDepartureDeduction,
		EarlyDepartureGraceMinutes:        p.EarlyDepartureGraceMinutes,
		AnnualLeaveDays:                   p.AnnualLeaveDays,
		EmergencyLeaveDays:                p.EmergencyLeaveDays,
		VerificationLevel:                 int(p.VerificationLevel),
		Level3Mode:                        p.Level3Mode,
		AllowedWifiIPs:                    p.AllowedWifiIPs,
		OfficeLatitude:                    p.OfficeLatitude,
		OfficeLongitude:                   p.OfficeLongitude,
		LocationRadiusMeters:              p.LocationRadiusMeters,
		PendingAutoRejectHours:            p.PendingAutoRejectHours,
		WorkStartTime:                     p.WorkStartTime,
		WorkEndTime:                       p.WorkEndTime,
		BreakDurationMinutes:              p.BreakDurationMinutes,
		WeekendDays:                       weekend,
		Timezone:                          p.Timezone,
		HolidayCountryCode:                p.HolidayCountryCode,
	}
}
