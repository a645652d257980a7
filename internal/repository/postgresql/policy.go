package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) policy.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

const policyColumns = `
	company_id, daily_late_allowance_minutes, monthly_late_allowance_minutes,
	late_tier1_deduction, late_tier2_deduction, late_tier3_deduction,
	absence_without_permission_deduction, max_excused_absence_days, auto_absent_after_hours,
	overtime_multiplier, early_departure_threshold_minutes, early_departure_deduction, early_departure_grace_minutes,
	annual_leave_days, emergency_leave_days,
	attendance_verification_level, level3_verification_mode, allowed_wifi_ips,
	office_latitude, office_longitude, location_radius_meters, pending_auto_reject_hours,
	work_start_time, work_end_time, break_duration_minutes, weekend_days, timezone, holiday_country_code,
	created_at, updated_at`

func scanPolicy(row pgx.Row) (policy.CompanyPolicy, error) {
	var (
		p       policy.CompanyPolicy
		level   int16
		mode    string
		weekend []int16
	)
	err := row.Scan(
		&p.CompanyID, &p.DailyLateAllowanceMinutes, &p.MonthlyLateAllowanceMinutes,
		&p.LateTier1Deduction, &p.LateTier2Deduction, &p.LateTier3Deduction,
		&p.AbsenceWithoutPermissionDeduction, &p.MaxExcusedAbsenceDays, &p.AutoAbsentAfterHours,
		&p.OvertimeMultiplier, &p.EarlyDepartureThresholdMinutes, &p.EarlyDepartureDeduction, &p.EarlyDepartureGraceMinutes,
		&p.AnnualLeaveDays, &p.EmergencyLeaveDays,
		&level, &mode, &p.AllowedWifiIPs,
		&p.OfficeLatitude, &p.OfficeLongitude, &p.LocationRadiusMeters, &p.PendingAutoRejectHours,
		&p.WorkStartTime, &p.WorkEndTime, &p.BreakDurationMinutes, &weekend, &p.Timezone, &p.HolidayCountryCode,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return policy.CompanyPolicy{}, err
	}
	p.VerificationLevel = policy.VerificationLevel(level)
	if mode != "" {
		if m, err := policy.ParseVerificationMode(mode); err == nil {
			p.Level3Mode = m
		}
	}
	for _, d := range weekend {
		p.WeekendDays = append(p.WeekendDays, time.Weekday(d))
	}
	return p, nil
}

// GetByCompanyID implements policy.PolicyRepository.
func (r *policyRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) (policy.CompanyPolicy, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + policyColumns + ` FROM company_policies WHERE company_id = $1`

	p, err := scanPolicy(q.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.CompanyPolicy{}, policy.ErrPolicyNotFound
		}
		return policy.CompanyPolicy{}, fmt.Errorf("failed to get company policy: %w", err)
	}
	return p, nil
}

// Upsert implements policy.PolicyRepository.
func (r *policyRepositoryImpl) Upsert(ctx context.Context, p policy.CompanyPolicy) (policy.CompanyPolicy, error) {
	q := GetQuerier(ctx, r.db)

	mode := ""
	if p.Level3Mode.Valid() {
		mode = p.Level3Mode.String()
	}
	weekend := make([]int16, 0, len(p.WeekendDays))
	for _, d := range p.WeekendDays {
		weekend = append(weekend, int16(d))
	}
	wifi := p.AllowedWifiIPs
	if wifi == nil {
		wifi = []string{}
	}

	query := `
		INSERT INTO company_policies (
			company_id, daily_late_allowance_minutes, monthly_late_allowance_minutes,
			late_tier1_deduction, late_tier2_deduction, late_tier3_deduction,
			absence_without_permission_deduction, max_excused_absence_days, auto_absent_after_hours,
			overtime_multiplier, early_departure_threshold_minutes, early_departure_deduction, early_departure_grace_minutes,
			annual_leave_days, emergency_leave_days,
			attendance_verification_level, level3_verification_mode, allowed_wifi_ips,
			office_latitude, office_longitude, location_radius_meters, pending_auto_reject_hours,
			work_start_time, work_end_time, break_duration_minutes, weekend_days, timezone, holiday_country_code
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
		ON CONFLICT (company_id) DO UPDATE SET
			daily_late_allowance_minutes = EXCLUDED.daily_late_allowance_minutes,
			monthly_late_allowance_minutes = EXCLUDED.monthly_late_allowance_minutes,
			late_tier1_deduction = EXCLUDED.late_tier1_deduction,
			late_tier2_deduction = EXCLUDED.late_tier2_deduction,
			late_tier3_deduction = EXCLUDED.late_tier3_deduction,
			absence_without_permission_deduction = EXCLUDED.absence_without_permission_deduction,
			max_excused_absence_days = EXCLUDED.max_excused_absence_days,
			auto_absent_after_hours = EXCLUDED.auto_absent_after_hours,
			overtime_multiplier = EXCLUDED.overtime_multiplier,
			early_departure_threshold_minutes = EXCLUDED.early_departure_threshold_minutes,
			early_departure_deduction = EXCLUDED.early_departure_deduction,
			early_departure_grace_minutes = EXCLUDED.early_departure_grace_minutes,
			annual_leave_days = EXCLUDED.annual_leave_days,
			emergency_leave_days = EXCLUDED.emergency_leave_days,
			attendance_verification_level = EXCLUDED.attendance_verification_level,
			level3_verification_mode = EXCLUDED.level3_verification_mode,
			allowed_wifi_ips = EXCLUDED.allowed_wifi_ips,
			office_latitude = EXCLUDED.office_latitude,
			office_longitude = EXCLUDED.office_longitude,
			location_radius_meters = EXCLUDED.location_radius_meters,
			pending_auto_reject_hours = EXCLUDED.pending_auto_reject_hours,
			work_start_time = EXCLUDED.work_start_time,
			work_end_time = EXCLUDED.work_end_time,
			break_duration_minutes = EXCLUDED.break_duration_minutes,
			weekend_days = EXCLUDED.weekend_days,
			timezone = EXCLUDED.timezone,
			holiday_country_code = EXCLUDED.holiday_country_code,
			updated_at = NOW()
		RETURNING ` + policyColumns

	saved, err := scanPolicy(q.QueryRow(ctx, query,
		p.CompanyID, p.DailyLateAllowanceMinutes, p.MonthlyLateAllowanceMinutes,
		p.LateTier1Deduction, p.LateTier2Deduction, p.LateTier3Deduction,
		p.AbsenceWithoutPermissionDeduction, p.MaxExcusedAbsenceDays, p.AutoAbsentAfterHours,
		p.OvertimeMultiplier, p.EarlyDepartureThresholdMinutes, p.EarlyDepartureDeduction, p.EarlyDepartureGraceMinutes,
		p.AnnualLeaveDays, p.EmergencyLeaveDays,
		int16(p.VerificationLevel), mode, wifi,
		p.OfficeLatitude, p.OfficeLongitude, p.LocationRadiusMeters, p.PendingAutoRejectHours,
		p.WorkStartTime, p.WorkEndTime, p.BreakDurationMinutes, weekend, p.Timezone, p.HolidayCountryCode,
	))
	if err != nil {
		return policy.CompanyPolicy{}, fmt.Errorf("failed to save company policy: %w", err)
	}
	return saved, nil
}

// ListCompanyIDs implements policy.PolicyRepository.
func (r *policyRepositoryImpl) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `SELECT DISTINCT company_id::text FROM employees ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
