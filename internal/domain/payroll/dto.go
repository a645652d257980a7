package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateAdjustmentRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      string `json:"month"` // YYYY-MM
	Bonus      string `json:"bonus,omitempty"`
	Deduction  string `json:"deduction,omitempty"`
	Reason     string `json:"reason"`
}

func (r *CreateAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	if _, ok := validator.IsValidMonth(r.Month); !ok {
		errs.Add("month", "must be YYYY-MM")
	}
	if r.Bonus != "" {
		if _, ok := validator.IsValidDecimal(r.Bonus); !ok {
			errs.Add("bonus", "must be a non-negative number")
		}
	}
	if r.Deduction != "" {
		if _, ok := validator.IsValidDecimal(r.Deduction); !ok {
			errs.Add("deduction", "must be a non-negative number")
		}
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}

	return errs.OrNil()
}

// Amounts returns the parsed month, bonus and deduction; call after Validate.
func (r *CreateAdjustmentRequest) Amounts() (time.Time, decimal.Decimal, decimal.Decimal) {
	month, _ := validator.IsValidMonth(r.Month)
	bonus, _ := validator.IsValidDecimal(r.Bonus)
	deduction, _ := validator.IsValidDecimal(r.Deduction)
	return month, bonus, deduction
}

type MonthRequest struct {
	Month string `json:"month"`
}

func (r *MonthRequest) Validate() error {
	if _, ok := validator.IsValidMonth(r.Month); !ok {
		return validator.ValidationErrors{{Field: "month", Message: "must be YYYY-MM"}}
	}
	return nil
}

func (r *MonthRequest) Time() time.Time {
	month, _ := validator.IsValidMonth(r.Month)
	return month
}

type AdjustmentResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Month           string          `json:"month"`
	Bonus           decimal.Decimal `json:"bonus"`
	Deduction       decimal.Decimal `json:"deduction"`
	IsAutoGenerated bool            `json:"is_auto_generated"`
	SourceKey       *string         `json:"source_key,omitempty"`
	Reason          string          `json:"reason"`
	CreatedAt       time.Time       `json:"created_at"`
}

func ToAdjustmentResponse(a SalaryAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		Month:           a.Month.Format("2006-01"),
		Bonus:           a.Bonus,
		Deduction:       a.Deduction,
		IsAutoGenerated: a.IsAutoGenerated,
		SourceKey:       a.SourceKey,
		Reason:          a.Reason,
		CreatedAt:       a.CreatedAt,
	}
}

type SummaryResponse struct {
	EmployeeID     string          `json:"employee_id"`
	Month          string          `json:"month"`
	IsFreelancer   bool            `json:"is_freelancer"`
	BaseSalary     decimal.Decimal `json:"base_salary"`
	WorkedHours    decimal.Decimal `json:"worked_hours"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	Earned         decimal.Decimal `json:"earned"`
	TotalBonus     decimal.Decimal `json:"total_bonus"`
	ManualBonus    decimal.Decimal `json:"manual_bonus"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	NetSalary      decimal.Decimal `json:"net_salary"`
}

func ToSummaryResponse(s Summary) SummaryResponse {
	return SummaryResponse{
		EmployeeID:     s.EmployeeID,
		Month:          s.Month.Format("2006-01"),
		IsFreelancer:   s.IsFreelancer,
		BaseSalary:     s.BaseSalary,
		WorkedHours:    decimal.NewFromInt(int64(s.WorkedMinutes)).Div(decimal.NewFromInt(60)).Round(2),
		HourlyRate:     s.HourlyRate,
		Earned:         s.Earned,
		TotalBonus:     s.TotalBonus,
		ManualBonus:    s.ManualBonus,
		TotalDeduction: s.TotalDeduction,
		NetSalary:      s.NetSalary,
	}
}

type GenerateResponse struct {
	Month   string `json:"month"`
	Created int    `json:"created"`
}
