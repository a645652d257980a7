package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

type PayrollService interface {
	CreateAdjustment(ctx context.Context, caller user.Caller, req CreateAdjustmentRequest) (AdjustmentResponse, error)
	ListAdjustments(ctx context.Context, caller user.Caller, month MonthRequest, employeeID *string) ([]AdjustmentResponse, error)
	Summary(ctx context.Context, caller user.Caller, employeeID string, month MonthRequest) (SummaryResponse, error)
	CompanySummary(ctx context.Context, caller user.Caller, month MonthRequest) ([]SummaryResponse, error)
	// GenerateAutoAdjustments turns the month's attendance into auto rows. Safe to re-run.
	GenerateAutoAdjustments(ctx context.Context, caller user.Caller, month MonthRequest) (GenerateResponse, error)
}
