package user

import "fmt"

type Permission string

const (
	// Leave Management
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveApprove Permission = "leave.approve"

	// Attendance Management
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceApprove Permission = "attendance.approve"

	// Employee Management
	PermissionEmployeeViewAll Permission = "employee.view_all"

	// Payroll
	PermissionPayrollView Permission = "payroll.view"

	// Marketplace
	PermissionMarketplaceManage Permission = "marketplace.manage"
)

// AllPermissions lists every permission a manager can be granted.
func AllPermissions() []Permission {
	return []Permission{
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionAttendanceViewAll,
		PermissionAttendanceApprove,
		PermissionEmployeeViewAll,
		PermissionPayrollView,
		PermissionMarketplaceManage,
	}
}

type accessKind int

const (
	accessAny accessKind = iota
	accessAdmin
	accessManagerWithPermission
)

// Access is the declarative requirement attached to an operation: Any, Admin,
// or ManagerWithPermission(name). One gate evaluates it for HTTP routes and
// assistant tools alike.
type Access struct {
	kind       accessKind
	permission Permission
}

func AccessAny() Access   { return Access{kind: accessAny} }
func AccessAdmin() Access { return Access{kind: accessAdmin} }

func AccessManagerWithPermission(p Permission) Access {
	return Access{kind: accessManagerWithPermission, permission: p}
}

func (a Access) Permission() Permission { return a.permission }

func (a Access) String() string {
	switch a.kind {
	case accessAdmin:
		return "admin"
	case accessManagerWithPermission:
		return fmt.Sprintf("manager(%s)", a.permission)
	default:
		return "any"
	}
}

// Authorize returns nil when c satisfies a, otherwise a permission error.
func (a Access) Authorize(c Caller) error {
	switch a.kind {
	case accessAny:
		return nil
	case accessAdmin:
		if c.IsAdmin() {
			return nil
		}
		return ErrAdminAccessRequired
	case accessManagerWithPermission:
		if c.HasPermission(a.permission) {
			return nil
		}
		return fmt.Errorf("%w: required '%s'", ErrInsufficientPermissions, a.permission)
	}
	return ErrInsufficientPermissions
}
