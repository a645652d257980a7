package user

import "fmt"

type Role string

const (
	RoleAdmin    Role = "admin"    // Company admin - full access
	RoleManager  Role = "manager"  // Acts on the permissions granted to them
	RoleEmployee Role = "employee" // Regular employee
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	UserID      string
	EmployeeID  string
	CompanyID   string
	Role        Role
	Permissions []Permission
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// HasPermission reports whether the caller holds p. Admins hold every permission,
// managers hold what was granted to them, employees hold none of the named ones.
func (c Caller) HasPermission(p Permission) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		for _, granted := range c.Permissions {
			if granted == p {
				return true
			}
		}
	}
	return false
}

// CallerFromClaims decodes the access token claims issued by the auth service.
func CallerFromClaims(claims map[string]interface{}) (Caller, error) {
	var c Caller
	var ok bool

	if c.UserID, ok = claims["user_id"].(string); !ok || c.UserID == "" {
		return Caller{}, fmt.Errorf("%w: user_id", ErrInvalidClaims)
	}
	if c.CompanyID, ok = claims["company_id"].(string); !ok || c.CompanyID == "" {
		return Caller{}, fmt.Errorf("%w: company_id", ErrInvalidClaims)
	}
	if c.EmployeeID, ok = claims["employee_id"].(string); !ok || c.EmployeeID == "" {
		return Caller{}, fmt.Errorf("%w: employee_id", ErrInvalidClaims)
	}
	role, _ := claims["role"].(string)
	c.Role = Role(role)
	if !c.Role.Valid() {
		return Caller{}, fmt.Errorf("%w: role", ErrInvalidClaims)
	}

	// jwx decodes JSON arrays as []interface{}
	switch perms := claims["permissions"].(type) {
	case []interface{}:
		for _, p := range perms {
			if s, ok := p.(string); ok {
				c.Permissions = append(c.Permissions, Permission(s))
			}
		}
	case []string:
		for _, s := range perms {
			c.Permissions = append(c.Permissions, Permission(s))
		}
	}

	return c, nil
}
