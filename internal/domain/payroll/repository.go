package payroll

import (
	"context"
	"time"
)

// AdjustmentRepository methods take companyID for tenant isolation.
type AdjustmentRepository interface {
	Create(ctx context.Context, a SalaryAdjustment) (SalaryAdjustment, error)
	// CreateAuto inserts an auto-generated row unless one with the same
	// source key exists for the employee; it reports whether a row was written.
	CreateAuto(ctx context.Context, a SalaryAdjustment) (bool, error)
	ListByEmployeeMonth(ctx context.Context, companyID, employeeID string, month time.Time) ([]SalaryAdjustment, error)
	ListByCompanyMonth(ctx context.Context, companyID string, month time.Time) ([]SalaryAdjustment, error)
}
