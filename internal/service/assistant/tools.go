package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/assistant"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/marketplace"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

// Services is everything the tools reach into. Each service still runs its
// own access checks; the tool gate only decides what is dispatched.
type Services struct {
	Attendance  attendance.AttendanceService
	Leave       leave.LeaveService
	Payroll     payroll.PayrollService
	Employees   employee.EmployeeService
	Policies    policy.PolicyService
	Marketplace marketplace.MarketplaceService
}

// Tool is one operation the model may call. Access is checked by the gate
// before Run is ever invoked.
type Tool struct {
	Definition assistant.ToolDefinition
	Access     user.Access
	Run        func(ctx context.Context, caller user.Caller, args json.RawMessage) (interface{}, error)
}

type monthArgs struct {
	Month string `json:"month"`
}

type idArgs struct {
	ID string `json:"id"`
}

type rejectArgs struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type employeeArgs struct {
	EmployeeID string `json:"employee_id"`
}

type leaveListArgs struct {
	Status string `json:"status"`
}

func decode(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", assistant.ErrInvalidArguments, err)
	}
	return nil
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

var (
	monthParam = object(map[string]interface{}{"month": str("Month as YYYY-MM")}, "month")
	noParams   = object(map[string]interface{}{})
)

// NewTools builds the tool registry in the order it is offered to the model.
func NewTools(s Services) []Tool {
	return []Tool{
		{
			Definition: assistant.ToolDefinition{Name: "get_company_policy", Description: "Read the company attendance, leave and payroll policy", Parameters: noParams},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				p, err := s.Policies.Get(ctx, caller.CompanyID)
				if err != nil {
					return nil, err
				}
				return policy.ToResponse(p), nil
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_my_attendance", Description: "List my attendance logs for a month", Parameters: object(map[string]interface{}{"month": str("Month as YYYY-MM, defaults to the current month")})},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
				var a monthArgs
				if err := decode(raw, &a); err != nil {
					return nil, err
				}
				return s.Attendance.ListMy(ctx, caller, attendance.ListLogsFilter{Month: a.Month})
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_today_attendance", Description: "Show my attendance for today", Parameters: noParams},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				return s.Attendance.Today(ctx, caller)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_my_leave_requests", Description: "List my leave requests", Parameters: noParams},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				return s.Leave.ListMy(ctx, caller)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_leave_balance", Description: "Show my remaining leave and emergency leave days", Parameters: noParams},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				return s.Leave.GetBalance(ctx, caller, "")
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_my_payroll_summary", Description: "Summarize my salary, bonuses and deductions for a month", Parameters: monthParam},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
				var a monthArgs
				if err := decode(raw, &a); err != nil {
					return nil, err
				}
				return s.Payroll.Summary(ctx, caller, "", payroll.MonthRequest{Month: a.Month})
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_marketplace_items", Description: "List marketplace items I can buy with points", Parameters: noParams},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				return s.Marketplace.ListItems(ctx, caller)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_my_wallet", Description: "Show my marketplace points balance", Parameters: noParams},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				return s.Marketplace.Wallet(ctx, caller)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "list_employees", Description: "List employees in the company", Parameters: noParams},
			Access:     user.AccessManagerWithPermission(user.PermissionEmployeeViewAll),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				return s.Employees.List(ctx, caller)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "list_pending_attendance", Description: "List attendance check-ins waiting for approval", Parameters: noParams},
			Access:     user.AccessManagerWithPermission(user.PermissionAttendanceApprove),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				return s.Attendance.ListPending(ctx, caller)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "list_leave_requests", Description: "List leave requests across the company", Parameters: object(map[string]interface{}{
				"status": map[string]interface{}{"type": "string", "enum": []string{"pending", "approved", "rejected"}},
			})},
			Access: user.AccessManagerWithPermission(user.PermissionLeaveViewAll),
			Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
				var a leaveListArgs
				if err := decode(raw, &a); err != nil {
					return nil, err
				}
				var filter leave.ListLeaveRequestsFilter
				if a.Status != "" {
					status := leave.LeaveRequestStatus(a.Status)
					filter.Status = &status
				}
				return s.Leave.List(ctx, caller, filter)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "approve_leave_request", Description: "Approve a pending leave request", Parameters: object(map[string]interface{}{"id": str("Leave request id")}, "id")},
			Access:     user.AccessManagerWithPermission(user.PermissionLeaveApprove),
			Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
				var a idArgs
				if err := decode(raw, &a); err != nil {
					return nil, err
				}
				return s.Leave.Approve(ctx, caller, a.ID)
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "reject_leave_request", Description: "Reject a leave request with a reason", Parameters: object(map[string]interface{}{
				"id":     str("Leave request id"),
				"reason": str("Why the request is rejected"),
			}, "id", "reason")},
			Access: user.AccessManagerWithPermission(user.PermissionLeaveApprove),
			Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
				var a rejectArgs
				if err := decode(raw, &a); err != nil {
					return nil, err
				}
				return s.Leave.Reject(ctx, caller, a.ID, leave.RejectLeaveRequestRequest{Reason: a.Reason})
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "get_employee_payroll_summary", Description: "Summarize one employee's payroll for a month", Parameters: object(map[string]interface{}{
				"employee_id": str("Employee id"),
				"month":       str("Month as YYYY-MM"),
			}, "employee_id", "month")},
			Access: user.AccessManagerWithPermission(user.PermissionPayrollView),
			Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
				var a struct {
					employeeArgs
					monthArgs
				}
				if err := decode(raw, &a); err != nil {
					return nil, err
				}
				return s.Payroll.Summary(ctx, caller, a.EmployeeID, payroll.MonthRequest{Month: a.Month})
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "generate_auto_adjustments", Description: "Generate the automatic attendance adjustments for a month", Parameters: monthParam},
			Access:     user.AccessAdmin(),
			Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
				var a monthArgs
				if err := decode(raw, &a); err != nil {
					return nil, err
				}
				return s.Payroll.GenerateAutoAdjustments(ctx, caller, payroll.MonthRequest{Month: a.Month})
			},
		},
	}
}
