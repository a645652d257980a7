package user

import (
	"testing"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessAuthorize(t *testing.T) {
	admin := Caller{UserID: "u1", Role: RoleAdmin}
	approver := Caller{UserID: "u2", Role: RoleManager, Permissions: []Permission{PermissionLeaveApprove}}
	plainManager := Caller{UserID: "u3", Role: RoleManager}
	employee := Caller{UserID: "u4", Role: RoleEmployee, Permissions: []Permission{PermissionLeaveApprove}}

	leaveApprove := AccessManagerWithPermission(PermissionLeaveApprove)

	cases := []struct {
		name    string
		access  Access
		caller  Caller
		allowed bool
	}{
		{"any lets employees through", AccessAny(), employee, true},
		{"admin route rejects manager", AccessAdmin(), approver, false},
		{"admin route accepts admin", AccessAdmin(), admin, true},
		{"granted manager passes", leaveApprove, approver, true},
		{"manager without grant fails", leaveApprove, plainManager, false},
		{"employee grants are ignored", leaveApprove, employee, false},
		{"admin passes manager gates", leaveApprove, admin, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.access.Authorize(c.caller)
			if c.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrPermission)
		})
	}
}

func TestCallerFromClaims(t *testing.T) {
	claims := map[string]interface{}{
		"user_id":     "u1",
		"employee_id": "e1",
		"company_id":  "c1",
		"role":        "manager",
		"permissions": []interface{}{"leave.approve", "attendance.approve"},
	}

	c, err := CallerFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, RoleManager, c.Role)
	assert.True(t, c.HasPermission(PermissionAttendanceApprove))
	assert.False(t, c.HasPermission(PermissionPayrollView))

	delete(claims, "company_id")
	_, err = CallerFromClaims(claims)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	claims["company_id"] = "c1"
	claims["role"] = "owner"
	_, err = CallerFromClaims(claims)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
