package employee

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// OverrideFields is shared by create and update; nil leaves the field untouched.
type OverrideFields struct {
	VerificationLevel      *int     `json:"verification_level,omitempty"`
	VerificationApproverID *string  `json:"verification_approver_id,omitempty"`
	Level3Mode             *string  `json:"level3_verification_mode,omitempty"`
	AllowedWifiIPs         []string `json:"allowed_wifi_ips,omitempty"`
	WorkStartTime          *string  `json:"work_start_time,omitempty"`
	WorkEndTime            *string  `json:"work_end_time,omitempty"`
	BreakDurationMinutes   *int     `json:"break_duration_minutes,omitempty"`
}

func (o OverrideFields) validate(errs *validator.ValidationErrors) {
	if o.VerificationLevel != nil && !policy.VerificationLevel(*o.VerificationLevel).Valid() {
		errs.Add("verification_level", "must be 1, 2 or 3")
	}
	if o.VerificationApproverID != nil && !validator.IsValidUUID(*o.VerificationApproverID) {
		errs.Add("verification_approver_id", "must be a valid UUID")
	}
	if o.Level3Mode != nil {
		if _, err := policy.ParseVerificationMode(*o.Level3Mode); err != nil {
			errs.Add("level3_verification_mode", "must be a combination of location, selfie, ip in that order")
		}
	}
	for i, ip := range o.AllowedWifiIPs {
		if !validator.IsValidIPOrPrefix(ip) {
			errs.Add(fmt.Sprintf("allowed_wifi_ips[%d]", i), "must be an IP address or CIDR prefix")
		}
	}
	if o.WorkStartTime != nil && !validator.IsValidClock(*o.WorkStartTime) {
		errs.Add("work_start_time", "must be HH:MM")
	}
	if o.WorkEndTime != nil && !validator.IsValidClock(*o.WorkEndTime) {
		errs.Add("work_end_time", "must be HH:MM")
	}
	if o.BreakDurationMinutes != nil && *o.BreakDurationMinutes < 0 {
		errs.Add("break_duration_minutes", "must not be negative")
	}
}

func (o OverrideFields) applyTo(e *Employee) {
	if o.VerificationLevel != nil {
		lvl := policy.VerificationLevel(*o.VerificationLevel)
		e.VerificationLevel = &lvl
	}
	if o.VerificationApproverID != nil {
		e.VerificationApproverID = o.VerificationApproverID
	}
	if o.Level3Mode != nil {
		if m, err := policy.ParseVerificationMode(*o.Level3Mode); err == nil {
			e.Level3Mode = &m
		}
	}
	if o.AllowedWifiIPs != nil {
		e.AllowedWifiIPs = o.AllowedWifiIPs
	}
	if o.WorkStartTime != nil {
		e.WorkStartTime = o.WorkStartTime
	}
	if o.WorkEndTime != nil {
		e.WorkEndTime = o.WorkEndTime
	}
	if o.BreakDurationMinutes != nil {
		e.BreakDurationMinutes = o.BreakDurationMinutes
	}
}

type CreateEmployeeRequest struct {
	UserID       *string `json:"user_id,omitempty"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	ManagerID    *string `json:"manager_id,omitempty"`
	SalaryType   string  `json:"salary_type"`
	BaseSalary   string  `json:"base_salary"`
	IsFreelancer bool    `json:"is_freelancer"`
	HourlyRate   string  `json:"hourly_rate,omitempty"`
	OverrideFields
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FullName) {
		errs.Add("full_name", "full_name is required")
	}
	if validator.IsEmpty(r.Email) {
		errs.Add("email", "email is required")
	}
	if r.Role == "" {
		r.Role = string(user.RoleEmployee)
	}
	if !user.Role(r.Role).Valid() {
		errs.Add("role", "must be admin, manager or employee")
	}
	if r.ManagerID != nil && !validator.IsValidUUID(*r.ManagerID) {
		errs.Add("manager_id", "must be a valid UUID")
	}
	if r.SalaryType == "" {
		r.SalaryType = string(SalaryTypeMonthly)
	}
	if !validator.IsInSlice(r.SalaryType, []string{string(SalaryTypeMonthly), string(SalaryTypeDaily)}) {
		errs.Add("salary_type", "must be monthly or daily")
	}
	if r.IsFreelancer {
		if _, ok := validator.IsValidDecimal(r.HourlyRate); !ok {
			errs.Add("hourly_rate", "hourly_rate is required for freelancers and must not be negative")
		}
	} else if _, ok := validator.IsValidDecimal(r.BaseSalary); !ok {
		errs.Add("base_salary", "base_salary is required and must not be negative")
	}
	r.OverrideFields.validate(&errs)

	return errs.OrNil()
}

// ToEntity builds the employee with starting balances; call after Validate.
func (r *CreateEmployeeRequest) ToEntity(companyID string, monthlyLateAllowance, leaveBalance, emergencyBalance int) Employee {
	base, _ := validator.IsValidDecimal(r.BaseSalary)
	hourly, _ := validator.IsValidDecimal(r.HourlyRate)
	e := Employee{
		CompanyID:                 companyID,
		UserID:                    r.UserID,
		FullName:                  r.FullName,
		Email:                     r.Email,
		Role:                      user.Role(r.Role),
		ManagerID:                 r.ManagerID,
		SalaryType:                SalaryType(r.SalaryType),
		BaseSalary:                base,
		IsFreelancer:              r.IsFreelancer,
		HourlyRate:                hourly,
		MonthlyLateBalanceMinutes: monthlyLateAllowance,
		LeaveBalance:              leaveBalance,
		EmergencyLeaveBalance:     emergencyBalance,
	}
	r.OverrideFields.applyTo(&e)
	return e
}

type UpdateEmployeeRequest struct {
	FullName     *string `json:"full_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Role         *string `json:"role,omitempty"`
	ManagerID    *string `json:"manager_id,omitempty"`
	SalaryType   *string `json:"salary_type,omitempty"`
	BaseSalary   *string `json:"base_salary,omitempty"`
	IsFreelancer *bool   `json:"is_freelancer,omitempty"`
	HourlyRate   *string `json:"hourly_rate,omitempty"`
	OverrideFields

	// ClearOverrides resets every override back to the company policy before applying the rest.
	ClearOverrides bool `json:"clear_overrides,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FullName != nil && validator.IsEmpty(*r.FullName) {
		errs.Add("full_name", "full_name cannot be empty")
	}
	if r.Email != nil && validator.IsEmpty(*r.Email) {
		errs.Add("email", "email cannot be empty")
	}
	if r.Role != nil && !user.Role(*r.Role).Valid() {
		errs.Add("role", "must be admin, manager or employee")
	}
	if r.ManagerID != nil && !validator.IsValidUUID(*r.ManagerID) {
		errs.Add("manager_id", "must be a valid UUID")
	}
	if r.SalaryType != nil && !validator.IsInSlice(*r.SalaryType, []string{string(SalaryTypeMonthly), string(SalaryTypeDaily)}) {
		errs.Add("salary_type", "must be monthly or daily")
	}
	if r.BaseSalary != nil {
		if _, ok := validator.IsValidDecimal(*r.BaseSalary); !ok {
			errs.Add("base_salary", "must be a non-negative number")
		}
	}
	if r.HourlyRate != nil {
		if _, ok := validator.IsValidDecimal(*r.HourlyRate); !ok {
			errs.Add("hourly_rate", "must be a non-negative number")
		}
	}
	r.OverrideFields.validate(&errs)

	return errs.OrNil()
}

// ApplyTo returns e with the request applied; call after Validate.
func (r *UpdateEmployeeRequest) ApplyTo(e Employee) Employee {
	if r.ClearOverrides {
		e.VerificationLevel = nil
		e.VerificationApproverID = nil
		e.Level3Mode = nil
		e.AllowedWifiIPs = nil
		e.WorkStartTime = nil
		e.WorkEndTime = nil
		e.BreakDurationMinutes = nil
	}
	if r.FullName != nil {
		e.FullName = *r.FullName
	}
	if r.Email != nil {
		e.Email = *r.Email
	}
	if r.Role != nil {
		e.Role = user.Role(*r.Role)
	}
	if r.ManagerID != nil {
		e.ManagerID = r.ManagerID
	}
	if r.SalaryType != nil {
		e.SalaryType = SalaryType(*r.SalaryType)
	}
	if r.BaseSalary != nil {
		e.BaseSalary, _ = validator.IsValidDecimal(*r.BaseSalary)
	}
	if r.IsFreelancer != nil {
		e.IsFreelancer = *r.IsFreelancer
	}
	if r.HourlyRate != nil {
		e.HourlyRate, _ = validator.IsValidDecimal(*r.HourlyRate)
	}
	r.OverrideFields.applyTo(&e)
	return e
}

type EmployeeResponse struct {
	ID                        string                   `json:"id"`
	UserID                    *string                  `json:"user_id,omitempty"`
	FullName                  string                   `json:"full_name"`
	Email                     string                   `json:"email"`
	Role                      string                   `json:"role"`
	ManagerID                 *string                  `json:"manager_id,omitempty"`
	SalaryType                string                   `json:"salary_type"`
	BaseSalary                decimal.Decimal          `json:"base_salary"`
	IsFreelancer              bool                     `json:"is_freelancer"`
	HourlyRate                decimal.Decimal          `json:"hourly_rate"`
	MonthlyLateBalanceMinutes int                      `json:"monthly_late_balance_minutes"`
	LeaveBalance              int                      `json:"leave_balance"`
	EmergencyLeaveBalance     int                      `json:"emergency_leave_balance"`
	PointsBalance             int                      `json:"points_balance"`
	VerificationLevel         *int                     `json:"verification_level,omitempty"`
	VerificationApproverID    *string                  `json:"verification_approver_id,omitempty"`
	Level3Mode                *policy.VerificationMode `json:"level3_verification_mode,omitempty"`
	AllowedWifiIPs            []string                 `json:"allowed_wifi_ips,omitempty"`
	WorkStartTime             *string                  `json:"work_start_time,omitempty"`
	WorkEndTime               *string                  `json:"work_end_time,omitempty"`
	BreakDurationMinutes      *int                     `json:"break_duration_minutes,omitempty"`
	CreatedAt                 string                   `json:"created_at"`
	UpdatedAt                 string                   `json:"updated_at"`
}

func ToResponse(e Employee) EmployeeResponse {
	var level *int
	if e.VerificationLevel != nil {
		l := int(*e.VerificationLevel)
		level = &l
	}
	return EmployeeResponse{
		ID:                        e.ID,
		UserID:                    e.UserID,
		FullName:                  e.FullName,
		Email:                     e.Email,
		Role:                      string(e.Role),
		ManagerID:                 e.ManagerID,
		SalaryType:                string(e.SalaryType),
		BaseSalary:                e.BaseSalary,
		IsFreelancer:              e.IsFreelancer,
		HourlyRate:                e.HourlyRate,
		MonthlyLateBalanceMinutes: e.MonthlyLateBalanceMinutes,
		LeaveBalance:              e.LeaveBalance,
		EmergencyLeaveBalance:     e.EmergencyLeaveBalance,
		PointsBalance:             e.PointsBalance,
		VerificationLevel:         level,
		VerificationApproverID:    e.VerificationApproverID,
		Level3Mode:                e.Level3Mode,
		AllowedWifiIPs:            e.AllowedWifiIPs,
		WorkStartTime:             e.WorkStartTime,
		WorkEndTime:               e.WorkEndTime,
		BreakDurationMinutes:      e.BreakDurationMinutes,
		CreatedAt:                 e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:                 e.UpdatedAt.Format(time.RFC3339),
	}
}

// VerificationResponse describes the verification an employee's check-ins go through.
type VerificationResponse struct {
	EmployeeID     string                  `json:"employee_id"`
	Level          int                     `json:"level"`
	Mode           policy.VerificationMode `json:"mode,omitempty"`
	ApproverID     *string                 `json:"approver_id,omitempty"`
	AllowedWifiIPs []string                `json:"allowed_wifi_ips"`
	WorkStartTime  string                  `json:"work_start_time"`
	WorkEndTime    string                  `json:"work_end_time"`
}
