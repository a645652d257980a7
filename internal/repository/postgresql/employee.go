package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, company_id, user_id, full_name, email, role, manager_id,
	salary_type, base_salary, is_freelancer, hourly_rate,
	monthly_late_balance_minutes, leave_balance, emergency_leave_balance, points_balance,
	verification_level, verification_approver_id, level3_verification_mode, allowed_wifi_ips,
	work_start_time, work_end_time, break_duration_minutes, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		e         employee.Employee
		role      string
		salary    string
		level     *int16
		levelMode *string
	)
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.UserID, &e.FullName, &e.Email, &role, &e.ManagerID,
		&salary, &e.BaseSalary, &e.IsFreelancer, &e.HourlyRate,
		&e.MonthlyLateBalanceMinutes, &e.LeaveBalance, &e.EmergencyLeaveBalance, &e.PointsBalance,
		&level, &e.VerificationApproverID, &levelMode, &e.AllowedWifiIPs,
		&e.WorkStartTime, &e.WorkEndTime, &e.BreakDurationMinutes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	e.Role = user.Role(role)
	e.SalaryType = employee.SalaryType(salary)
	if level != nil {
		l := policy.VerificationLevel(*level)
		e.VerificationLevel = &l
	}
	if levelMode != nil {
		if m, err := policy.ParseVerificationMode(*levelMode); err == nil {
			e.Level3Mode = &m
		}
	}
	return e, nil
}

func employeeArgs(e employee.Employee) []interface{} {
	var level *int16
	if e.VerificationLevel != nil {
		l := int16(*e.VerificationLevel)
		level = &l
	}
	var mode *string
	if e.Level3Mode != nil {
		s := e.Level3Mode.String()
		mode = &s
	}
	return []interface{}{
		e.CompanyID, e.UserID, e.FullName, e.Email, string(e.Role), e.ManagerID,
		string(e.SalaryType), e.BaseSalary, e.IsFreelancer, e.HourlyRate,
		e.MonthlyLateBalanceMinutes, e.LeaveBalance, e.EmergencyLeaveBalance, e.PointsBalance,
		level, e.VerificationApproverID, mode, e.AllowedWifiIPs,
		e.WorkStartTime, e.WorkEndTime, e.BreakDurationMinutes,
	}
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND company_id = $2`

	e, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return e, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1 ORDER BY full_name, id`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EmailExists implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) EmailExists(ctx context.Context, companyID, email string, excludeID *string) (bool, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT EXISTS (
			SELECT 1 FROM employees
			WHERE company_id = $1 AND lower(email) = lower($2) AND ($3::uuid IS NULL OR id <> $3::uuid)
		)`

	var exists bool
	if err := q.QueryRow(ctx, query, companyID, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check employee email: %w", err)
	}
	return exists, nil
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO employees (
			company_id, user_id, full_name, email, role, manager_id,
			salary_type, base_salary, is_freelancer, hourly_rate,
			monthly_late_balance_minutes, leave_balance, emergency_leave_balance, points_balance,
			verification_level, verification_approver_id, level3_verification_mode, allowed_wifi_ips,
			work_start_time, work_end_time, break_duration_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query, employeeArgs(e)...))
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return created, nil
}

// Update implements employee.EmployeeRepository. Balances are left alone;
// they only move through the compare-and-swap methods.
func (r *employeeRepositoryImpl) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE employees SET
			full_name = $3, email = $4, role = $5, manager_id = $6,
			salary_type = $7, base_salary = $8, is_freelancer = $9, hourly_rate = $10,
			verification_level = $11, verification_approver_id = $12, level3_verification_mode = $13,
			allowed_wifi_ips = $14, work_start_time = $15, work_end_time = $16, break_duration_minutes = $17,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + employeeColumns

	a := employeeArgs(e)
	// drop user_id and the four balances from the insert argument list
	args := []interface{}{e.ID, e.CompanyID}
	args = append(args, a[2:10]...)
	args = append(args, a[14:]...)

	updated, err := scanEmployee(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to update employee with id %s: %w", e.ID, err)
	}
	return updated, nil
}

func (r *employeeRepositoryImpl) swap(ctx context.Context, query string, args ...interface{}) (bool, error) {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update employee balance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompareAndSwapLateBalance implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) CompareAndSwapLateBalance(ctx context.Context, companyID, id string, old, new int) (bool, error) {
	return r.swap(ctx, `
		UPDATE employees SET monthly_late_balance_minutes = $4, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND monthly_late_balance_minutes = $3`,
		id, companyID, old, new)
}

// CompareAndSwapLeaveBalances implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) CompareAndSwapLeaveBalances(ctx context.Context, companyID, id string, old, new employee.LeaveBalances) (bool, error) {
	return r.swap(ctx, `
		UPDATE employees SET leave_balance = $5, emergency_leave_balance = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND leave_balance = $3 AND emergency_leave_balance = $4`,
		id, companyID, old.Leave, old.Emergency, new.Leave, new.Emergency)
}

// CompareAndSwapPoints implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) CompareAndSwapPoints(ctx context.Context, companyID, id string, old, new int) (bool, error) {
	return r.swap(ctx, `
		UPDATE employees SET points_balance = $4, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND points_balance = $3`,
		id, companyID, old, new)
}

// ResetLateBalances implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ResetLateBalances(ctx context.Context, companyID string, minutes int) (int64, error) {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, `
		UPDATE employees SET monthly_late_balance_minutes = $2, updated_at = NOW()
		WHERE company_id = $1`, companyID, minutes)
	if err != nil {
		return 0, fmt.Errorf("failed to reset late balances: %w", err)
	}
	return tag.RowsAffected(), nil
}
