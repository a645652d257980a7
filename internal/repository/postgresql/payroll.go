package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type adjustmentRepository struct {
	db *database.DB
}

func NewAdjustmentRepository(db *database.DB) payroll.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

const adjustmentColumns = `
	id, company_id, employee_id, month, bonus, deduction,
	is_auto_generated, source_key, reason, created_by, created_at`

func scanAdjustment(row pgx.Row) (payroll.SalaryAdjustment, error) {
	var a payroll.SalaryAdjustment
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.Month, &a.Bonus, &a.Deduction,
		&a.IsAutoGenerated, &a.SourceKey, &a.Reason, &a.CreatedBy, &a.CreatedAt,
	)
	return a, err
}

func collectAdjustments(rows pgx.Rows) ([]payroll.SalaryAdjustment, error) {
	defer rows.Close()
	var out []payroll.SalaryAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary adjustment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) Create(ctx context.Context, a payroll.SalaryAdjustment) (payroll.SalaryAdjustment, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO salary_adjustments (company_id, employee_id, month, bonus, deduction, is_auto_generated, source_key, reason, created_by)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9)
		RETURNING ` + adjustmentColumns

	created, err := scanAdjustment(q.QueryRow(ctx, query,
		a.CompanyID, a.EmployeeID, dateOnly(payroll.MonthStart(a.Month)), a.Bonus, a.Deduction,
		a.IsAutoGenerated, a.SourceKey, a.Reason, a.CreatedBy,
	))
	if err != nil {
		return payroll.SalaryAdjustment{}, fmt.Errorf("failed to create salary adjustment: %w", err)
	}
	return created, nil
}

// CreateAuto implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) CreateAuto(ctx context.Context, a payroll.SalaryAdjustment) (bool, error) {
	if a.SourceKey == nil {
		return false, fmt.Errorf("auto adjustment for employee %s has no source key", a.EmployeeID)
	}
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, `
		INSERT INTO salary_adjustments (company_id, employee_id, month, bonus, deduction, is_auto_generated, source_key, reason)
		VALUES ($1, $2, $3::date, $4, $5, TRUE, $6, $7)
		ON CONFLICT (employee_id, source_key) WHERE source_key IS NOT NULL DO NOTHING`,
		a.CompanyID, a.EmployeeID, dateOnly(payroll.MonthStart(a.Month)), a.Bonus, a.Deduction, a.SourceKey, a.Reason)
	if err != nil {
		return false, fmt.Errorf("failed to create auto adjustment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByEmployeeMonth implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) ListByEmployeeMonth(ctx context.Context, companyID, employeeID string, month time.Time) ([]payroll.SalaryAdjustment, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + adjustmentColumns + `
		FROM salary_adjustments
		WHERE company_id = $1 AND employee_id = $2 AND month = $3::date
		ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, companyID, employeeID, dateOnly(payroll.MonthStart(month)))
	if err != nil {
		return nil, fmt.Errorf("failed to list salary adjustments: %w", err)
	}
	return collectAdjustments(rows)
}

// ListByCompanyMonth implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) ListByCompanyMonth(ctx context.Context, companyID string, month time.Time) ([]payroll.SalaryAdjustment, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + adjustmentColumns + `
		FROM salary_adjustments
		WHERE company_id = $1 AND month = $2::date
		ORDER BY employee_id, created_at, id`

	rows, err := q.Query(ctx, query, companyID, dateOnly(payroll.MonthStart(month)))
	if err != nil {
		return nil, fmt.Errorf("failed to list company salary adjustments: %w", err)
	}
	return collectAdjustments(rows)
}
