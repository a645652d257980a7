package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceLogRepository struct {
	db *database.DB
}

func NewAttendanceLogRepository(db *database.DB) attendance.LogRepository {
	return &attendanceLogRepository{db: db}
}

const attendanceLogColumns = `
	id, company_id, employee_id, date, check_in_time, check_out_time, status,
	break_started_at, break_minutes,
	late_minutes, late_excess_minutes, late_tier, late_deduction_days,
	early_departure_minutes, early_departure_deduction_days, overtime_minutes, worked_minutes,
	check_in_latitude, check_in_longitude, check_in_ip, created_at, updated_at`

func scanAttendanceLog(row pgx.Row) (attendance.Log, error) {
	var (
		l      attendance.Log
		status string
		tier   string
	)
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.Date, &l.CheckInTime, &l.CheckOutTime, &status,
		&l.BreakStartedAt, &l.BreakMinutes,
		&l.LateMinutes, &l.LateExcessMinutes, &tier, &l.LateDeductionDays,
		&l.EarlyDepartureMinutes, &l.EarlyDepartureDeductionDays, &l.OvertimeMinutes, &l.WorkedMinutes,
		&l.CheckInLatitude, &l.CheckInLongitude, &l.CheckInIP, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return attendance.Log{}, err
	}
	l.Status = attendance.LogStatus(status)
	l.LateTier = attendance.Tier(tier)
	return l, nil
}

func collectAttendanceLogs(rows pgx.Rows) ([]attendance.Log, error) {
	defer rows.Close()
	var out []attendance.Log
	for rows.Next() {
		l, err := scanAttendanceLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}

// GetByID implements attendance.LogRepository.
func (r *attendanceLogRepository) GetByID(ctx context.Context, companyID, id string) (attendance.Log, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + attendanceLogColumns + ` FROM attendance_logs WHERE id = $1 AND company_id = $2`

	l, err := scanAttendanceLog(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Log{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Log{}, fmt.Errorf("failed to get attendance with id %s: %w", id, err)
	}
	return l, nil
}

// GetByEmployeeDate implements attendance.LogRepository.
func (r *attendanceLogRepository) GetByEmployeeDate(ctx context.Context, companyID, employeeID string, date time.Time) (attendance.Log, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + attendanceLogColumns + `
		FROM attendance_logs
		WHERE company_id = $1 AND employee_id = $2 AND date = $3::date` + lockClause(ctx)

	l, err := scanAttendanceLog(q.QueryRow(ctx, query, companyID, employeeID, dateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Log{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Log{}, fmt.Errorf("failed to get attendance for %s: %w", dateOnly(date), err)
	}
	return l, nil
}

// Create implements attendance.LogRepository.
func (r *attendanceLogRepository) Create(ctx context.Context, l attendance.Log) (attendance.Log, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO attendance_logs (
			company_id, employee_id, date, check_in_time, check_out_time, status,
			break_started_at, break_minutes,
			late_minutes, late_excess_minutes, late_tier, late_deduction_days,
			early_departure_minutes, early_departure_deduction_days, overtime_minutes, worked_minutes,
			check_in_latitude, check_in_longitude, check_in_ip
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ` + attendanceLogColumns

	created, err := scanAttendanceLog(q.QueryRow(ctx, query,
		l.CompanyID, l.EmployeeID, dateOnly(l.Date), l.CheckInTime, l.CheckOutTime, string(l.Status),
		l.BreakStartedAt, l.BreakMinutes,
		l.LateMinutes, l.LateExcessMinutes, string(tierOrOnTime(l.LateTier)), l.LateDeductionDays,
		l.EarlyDepartureMinutes, l.EarlyDepartureDeductionDays, l.OvertimeMinutes, l.WorkedMinutes,
		l.CheckInLatitude, l.CheckInLongitude, l.CheckInIP,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Log{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Log{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// Update implements attendance.LogRepository.
func (r *attendanceLogRepository) Update(ctx context.Context, l attendance.Log) (attendance.Log, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE attendance_logs SET
			check_in_time = $3, check_out_time = $4, status = $5,
			break_started_at = $6, break_minutes = $7,
			late_minutes = $8, late_excess_minutes = $9, late_tier = $10, late_deduction_days = $11,
			early_departure_minutes = $12, early_departure_deduction_days = $13,
			overtime_minutes = $14, worked_minutes = $15,
			check_in_latitude = $16, check_in_longitude = $17, check_in_ip = $18,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + attendanceLogColumns

	updated, err := scanAttendanceLog(q.QueryRow(ctx, query,
		l.ID, l.CompanyID,
		l.CheckInTime, l.CheckOutTime, string(l.Status),
		l.BreakStartedAt, l.BreakMinutes,
		l.LateMinutes, l.LateExcessMinutes, string(tierOrOnTime(l.LateTier)), l.LateDeductionDays,
		l.EarlyDepartureMinutes, l.EarlyDepartureDeductionDays,
		l.OvertimeMinutes, l.WorkedMinutes,
		l.CheckInLatitude, l.CheckInLongitude, l.CheckInIP,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Log{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Log{}, fmt.Errorf("failed to update attendance with id %s: %w", l.ID, err)
	}
	return updated, nil
}

// ListByEmployeeRange implements attendance.LogRepository. Both bounds are inclusive dates.
func (r *attendanceLogRepository) ListByEmployeeRange(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]attendance.Log, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + attendanceLogColumns + `
		FROM attendance_logs
		WHERE company_id = $1 AND employee_id = $2 AND date BETWEEN $3::date AND $4::date
		ORDER BY date`

	rows, err := q.Query(ctx, query, companyID, employeeID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return collectAttendanceLogs(rows)
}

// ListByCompanyRange implements attendance.LogRepository.
func (r *attendanceLogRepository) ListByCompanyRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Log, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + attendanceLogColumns + `
		FROM attendance_logs
		WHERE company_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date, employee_id`

	rows, err := q.Query(ctx, query, companyID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list company attendance: %w", err)
	}
	return collectAttendanceLogs(rows)
}

func tierOrOnTime(t attendance.Tier) attendance.Tier {
	if t == "" {
		return attendance.TierOnTime
	}
	return t
}

type pendingAttendanceRepository struct {
	db *database.DB
}

func NewPendingAttendanceRepository(db *database.DB) attendance.PendingRepository {
	return &pendingAttendanceRepository{db: db}
}

const pendingColumns = `
	id, company_id, employee_id, kind, date, requested_at,
	latitude, longitude, ip_address, selfie_url,
	location_verified, ip_verified, selfie_verified, vpn_detected, location_spoofing_suspected,
	verification_level, required_mode, approver_id,
	status, reviewed_by, reviewed_at, review_note, created_at`

func scanPending(row pgx.Row) (attendance.PendingAttendance, error) {
	var (
		p      attendance.PendingAttendance
		kind   string
		status string
		level  int16
		mode   string
	)
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.EmployeeID, &kind, &p.Date, &p.RequestedAt,
		&p.Latitude, &p.Longitude, &p.IPAddress, &p.SelfieURL,
		&p.LocationVerified, &p.IPVerified, &p.SelfieVerified, &p.VPNDetected, &p.LocationSpoofingSuspected,
		&level, &mode, &p.ApproverID,
		&status, &p.ReviewedBy, &p.ReviewedAt, &p.ReviewNote, &p.CreatedAt,
	)
	if err != nil {
		return attendance.PendingAttendance{}, err
	}
	p.Kind = attendance.PendingKind(kind)
	p.Status = attendance.PendingStatus(status)
	p.VerificationLevel = policy.VerificationLevel(level)
	if mode != "" {
		if m, err := policy.ParseVerificationMode(mode); err == nil {
			p.RequiredMode = m
		}
	}
	return p, nil
}

func collectPending(rows pgx.Rows) ([]attendance.PendingAttendance, error) {
	defer rows.Close()
	var out []attendance.PendingAttendance
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending attendance: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID implements attendance.PendingRepository.
func (r *pendingAttendanceRepository) GetByID(ctx context.Context, companyID, id string) (attendance.PendingAttendance, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + pendingColumns + ` FROM pending_attendances WHERE id = $1 AND company_id = $2`

	p, err := scanPending(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.PendingAttendance{}, attendance.ErrPendingNotFound
		}
		return attendance.PendingAttendance{}, fmt.Errorf("failed to get pending attendance with id %s: %w", id, err)
	}
	return p, nil
}

// FindOpen implements attendance.PendingRepository.
func (r *pendingAttendanceRepository) FindOpen(ctx context.Context, companyID, employeeID string, kind attendance.PendingKind, date time.Time) (*attendance.PendingAttendance, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + pendingColumns + `
		FROM pending_attendances
		WHERE company_id = $1 AND employee_id = $2 AND kind = $3 AND date = $4::date AND status = 'pending'`

	p, err := scanPending(q.QueryRow(ctx, query, companyID, employeeID, string(kind), dateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open pending attendance: %w", err)
	}
	return &p, nil
}

// Create implements attendance.PendingRepository.
func (r *pendingAttendanceRepository) Create(ctx context.Context, p attendance.PendingAttendance) (attendance.PendingAttendance, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO pending_attendances (
			company_id, employee_id, kind, date, requested_at,
			latitude, longitude, ip_address, selfie_url,
			location_verified, ip_verified, selfie_verified, vpn_detected, location_spoofing_suspected,
			verification_level, required_mode, approver_id, status
		) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 'pending')
		RETURNING ` + pendingColumns

	mode := ""
	if p.RequiredMode.Valid() {
		mode = p.RequiredMode.String()
	}
	created, err := scanPending(q.QueryRow(ctx, query,
		p.CompanyID, p.EmployeeID, string(p.Kind), dateOnly(p.Date), p.RequestedAt,
		p.Latitude, p.Longitude, p.IPAddress, p.SelfieURL,
		p.LocationVerified, p.IPVerified, p.SelfieVerified, p.VPNDetected, p.LocationSpoofingSuspected,
		int16(p.VerificationLevel), mode, p.ApproverID,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.PendingAttendance{}, attendance.ErrPendingAlreadyExists
		}
		return attendance.PendingAttendance{}, fmt.Errorf("failed to create pending attendance: %w", err)
	}
	return created, nil
}

// List implements attendance.PendingRepository.
func (r *pendingAttendanceRepository) List(ctx context.Context, companyID string, status *attendance.PendingStatus) ([]attendance.PendingAttendance, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + pendingColumns + `
		FROM pending_attendances
		WHERE company_id = $1 AND ($2::text IS NULL OR status = $2::text)
		ORDER BY requested_at DESC`

	var s *string
	if status != nil {
		v := string(*status)
		s = &v
	}
	rows, err := q.Query(ctx, query, companyID, s)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending attendance: %w", err)
	}
	return collectPending(rows)
}

// Decide implements attendance.PendingRepository.
func (r *pendingAttendanceRepository) Decide(ctx context.Context, companyID, id string, status attendance.PendingStatus, reviewerID *string, note *string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, `
		UPDATE pending_attendances
		SET status = $3, reviewed_by = $4, review_note = $5, reviewed_at = $6
		WHERE id = $1 AND company_id = $2 AND status = 'pending'`,
		id, companyID, string(status), reviewerID, note, at)
	if err != nil {
		return false, fmt.Errorf("failed to decide pending attendance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpired implements attendance.PendingRepository.
func (r *pendingAttendanceRepository) ListExpired(ctx context.Context, companyID string, cutoff time.Time) ([]attendance.PendingAttendance, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + pendingColumns + `
		FROM pending_attendances
		WHERE company_id = $1 AND status = 'pending' AND requested_at < $2
		ORDER BY requested_at`

	rows, err := q.Query(ctx, query, companyID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired pending attendance: %w", err)
	}
	return collectPending(rows)
}
