package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/assistant"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	replies []assistant.Message
	err     error
	calls   [][]assistant.Message
	offered [][]assistant.ToolDefinition
}

func (m *scriptedModel) Complete(ctx context.Context, messages []assistant.Message, tools []assistant.ToolDefinition) (assistant.Message, error) {
	m.calls = append(m.calls, append([]assistant.Message(nil), messages...))
	m.offered = append(m.offered, tools)
	if m.err != nil {
		return assistant.Message{}, m.err
	}
	if len(m.replies) == 0 {
		return assistant.Message{Role: assistant.RoleAssistant, Content: "done"}, nil
	}
	next := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return next, nil
}

func toolCall(id, name, args string) assistant.Message {
	return assistant.Message{Role: assistant.RoleAssistant, ToolCalls: []assistant.ToolCall{{ID: id, Name: name, Arguments: json.RawMessage(args)}}}
}

func employeeCaller() user.Caller {
	return user.Caller{EmployeeID: "emp-1", CompanyID: "company-1", Role: user.RoleEmployee}
}

func testTools(runs *int) []Tool {
	return []Tool{
		{
			Definition: assistant.ToolDefinition{Name: "whoami", Parameters: noParams},
			Access:     user.AccessAny(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				*runs++
				return map[string]string{"employee_id": caller.EmployeeID}, nil
			},
		},
		{
			Definition: assistant.ToolDefinition{Name: "wipe_payroll", Parameters: noParams},
			Access:     user.AccessAdmin(),
			Run: func(ctx context.Context, caller user.Caller, _ json.RawMessage) (interface{}, error) {
				panic("must not run for non-admins")
			},
		},
	}
}

func TestChat_ReplyWithoutTools(t *testing.T) {
	model := &scriptedModel{replies: []assistant.Message{{Role: assistant.RoleAssistant, Content: "hello"}}}
	svc := NewAssistantService(model, nil)

	resp, err := svc.Chat(context.Background(), employeeCaller(), assistant.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Reply)
	assert.Empty(t, resp.ToolCalls)

	require.Len(t, model.calls, 1)
	assert.Equal(t, assistant.RoleSystem, model.calls[0][0].Role)
	assert.Equal(t, "hi", model.calls[0][1].Content)
}

func TestChat_GateDeniesBeforeDispatch(t *testing.T) {
	var runs int
	model := &scriptedModel{replies: []assistant.Message{
		{Role: assistant.RoleAssistant, ToolCalls: []assistant.ToolCall{
			{ID: "c1", Name: "whoami"},
			{ID: "c2", Name: "wipe_payroll"},
			{ID: "c3", Name: "drop_tables"},
		}},
		{Role: assistant.RoleAssistant, Content: "you are emp-1"},
	}}
	svc := NewAssistantService(model, testTools(&runs))

	resp, err := svc.Chat(context.Background(), employeeCaller(), assistant.ChatRequest{Message: "who am i"})
	require.NoError(t, err)
	assert.Equal(t, "you are emp-1", resp.Reply)
	assert.Equal(t, 1, runs)

	require.Len(t, resp.ToolCalls, 3)
	assert.True(t, resp.ToolCalls[0].Allowed)
	assert.False(t, resp.ToolCalls[1].Allowed)
	assert.False(t, resp.ToolCalls[2].Allowed)

	// only tools the caller may run are offered
	require.Len(t, model.offered[0], 1)
	assert.Equal(t, "whoami", model.offered[0][0].Name)

	second := model.calls[1]
	results := second[len(second)-3:]
	assert.Equal(t, "c1", results[0].ToolCallID)
	assert.Contains(t, results[0].Content, `"employee_id":"emp-1"`)
	assert.Contains(t, results[1].Content, "admin access required")
	assert.Contains(t, results[2].Content, "unknown tool")
}

func TestChat_AdminSeesAdminTools(t *testing.T) {
	var runs int
	model := &scriptedModel{}
	svc := NewAssistantService(model, testTools(&runs))

	admin := user.Caller{EmployeeID: "emp-admin", CompanyID: "company-1", Role: user.RoleAdmin}
	_, err := svc.Chat(context.Background(), admin, assistant.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Len(t, model.offered[0], 2)
}

func TestChat_StopsAfterMaxRounds(t *testing.T) {
	var runs int
	model := &scriptedModel{replies: []assistant.Message{toolCall("loop", "whoami", `{}`)}}
	svc := NewAssistantService(model, testTools(&runs))

	_, err := svc.Chat(context.Background(), employeeCaller(), assistant.ChatRequest{Message: "loop"})
	assert.ErrorIs(t, err, assistant.ErrTooManyToolRounds)
	assert.Equal(t, MaxToolRounds, runs)
	assert.Len(t, model.calls, MaxToolRounds+1)
}

func TestChat_ModelFailure(t *testing.T) {
	svc := NewAssistantService(&scriptedModel{err: errors.New("connection refused")}, nil)

	_, err := svc.Chat(context.Background(), employeeCaller(), assistant.ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, assistant.ErrModelUnavailable)

	_, err = svc.Chat(context.Background(), employeeCaller(), assistant.ChatRequest{Message: " "})
	assert.Error(t, err)
}

func TestChat_BadArgumentsGoBackToModel(t *testing.T) {
	tools := []Tool{{
		Definition: assistant.ToolDefinition{Name: "month", Parameters: monthParam},
		Access:     user.AccessAny(),
		Run: func(ctx context.Context, caller user.Caller, raw json.RawMessage) (interface{}, error) {
			var a monthArgs
			if err := decode(raw, &a); err != nil {
				return nil, err
			}
			return a, nil
		},
	}}
	model := &scriptedModel{replies: []assistant.Message{toolCall("c1", "month", `{"month":`), {Content: "sorry"}}}
	svc := NewAssistantService(model, tools)

	resp, err := svc.Chat(context.Background(), employeeCaller(), assistant.ChatRequest{Message: "may"})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.True(t, resp.ToolCalls[0].Allowed)
	assert.True(t, strings.HasPrefix(resp.ToolCalls[0].Error, "invalid tool arguments"))
}

func TestNewTools_Registry(t *testing.T) {
	tools := NewTools(Services{})
	require.Len(t, tools, 15)

	byName := make(map[string]Tool, len(tools))
	for _, tl := range tools {
		_, dup := byName[tl.Definition.Name]
		require.False(t, dup, tl.Definition.Name)
		byName[tl.Definition.Name] = tl
	}

	want := map[string]user.Access{
		"get_company_policy":           user.AccessAny(),
		"get_my_attendance":            user.AccessAny(),
		"get_today_attendance":         user.AccessAny(),
		"get_my_leave_requests":        user.AccessAny(),
		"get_leave_balance":            user.AccessAny(),
		"get_my_payroll_summary":       user.AccessAny(),
		"get_marketplace_items":        user.AccessAny(),
		"get_my_wallet":                user.AccessAny(),
		"list_employees":               user.AccessManagerWithPermission(user.PermissionEmployeeViewAll),
		"list_pending_attendance":      user.AccessManagerWithPermission(user.PermissionAttendanceApprove),
		"list_leave_requests":          user.AccessManagerWithPermission(user.PermissionLeaveViewAll),
		"approve_leave_request":        user.AccessManagerWithPermission(user.PermissionLeaveApprove),
		"reject_leave_request":         user.AccessManagerWithPermission(user.PermissionLeaveApprove),
		"get_employee_payroll_summary": user.AccessManagerWithPermission(user.PermissionPayrollView),
		"generate_auto_adjustments":    user.AccessAdmin(),
	}
	require.Len(t, byName, len(want))
	for name, access := range want {
		tl, ok := byName[name]
		require.True(t, ok, name)
		assert.Equal(t, access.String(), tl.Access.String(), name)
		assert.NotNil(t, tl.Run, name)
	}

	employee := employeeCaller()
	approver := user.Caller{EmployeeID: "emp-2", CompanyID: "company-1", Role: user.RoleManager,
		Permissions: []user.Permission{user.PermissionLeaveApprove}}
	admin := user.Caller{EmployeeID: "emp-3", CompanyID: "company-1", Role: user.RoleAdmin}

	assert.NoError(t, byName["get_leave_balance"].Access.Authorize(employee))
	assert.ErrorIs(t, byName["approve_leave_request"].Access.Authorize(employee), user.ErrInsufficientPermissions)
	assert.NoError(t, byName["approve_leave_request"].Access.Authorize(approver))
	assert.ErrorIs(t, byName["list_employees"].Access.Authorize(approver), user.ErrInsufficientPermissions)
	assert.ErrorIs(t, byName["generate_auto_adjustments"].Access.Authorize(approver), user.ErrAdminAccessRequired)
	for _, tl := range tools {
		assert.NoError(t, tl.Access.Authorize(admin), tl.Definition.Name)
	}
}
