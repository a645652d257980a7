package employee

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID = "company-1"
	adminID   = "0b7d0c9e-0000-4000-8000-000000000001"
	managerID = "0b7d0c9e-0000-4000-8000-000000000002"
	staffID   = "0b7d0c9e-0000-4000-8000-000000000003"
)

var (
	admin   = user.Caller{UserID: "u-admin", EmployeeID: adminID, CompanyID: companyID, Role: user.RoleAdmin}
	manager = user.Caller{UserID: "u-manager", EmployeeID: managerID, CompanyID: companyID, Role: user.RoleManager, Permissions: []user.Permission{user.PermissionEmployeeViewAll}}
	staff = user.Caller{UserID: "u-staff", EmployeeID: staffID, CompanyID: companyID, Role: user.RoleEmployee}
)

type fixture struct {
	svc      employee.EmployeeService
	store    *fixtures.EmployeeStore
	recorder *fixtures.Recorder
	deleter  *fixtures.Deleter
	policies fixtures.Policies
}

func newFixture() fixture {
	store := fixtures.NewEmployeeStore(
		employee.Employee{ID: adminID, CompanyID: companyID, FullName: "Ada Admin", Email: "ada@example.com", Role: user.RoleAdmin},
		employee.Employee{ID: managerID, CompanyID: companyID, FullName: "Mina Manager", Email: "mina@example.com", Role: user.RoleManager},
		employee.Employee{ID: staffID, CompanyID: companyID, FullName: "Sam Staff", Email: "sam@example.com", Role: user.RoleEmployee, ManagerID: strp(managerID)},
	)
	f := fixture{
		store:    store,
		recorder: &fixtures.Recorder{},
		deleter:  &fixtures.Deleter{},
		policies: fixtures.Policies{},
	}
	f.svc = NewEmployeeService(store, f.policies, f.deleter, f.recorder)
	return f
}

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func TestCreate_StartsWithPolicyBalances(t *testing.T) {
	f := newFixture()
	p := fixtures.DefaultCompanyPolicy(companyID)
	p.MonthlyLateAllowanceMinutes = 45
	f.policies[companyID] = p

	resp, err := f.svc.Create(context.Background(), admin, employee.CreateEmployeeRequest{
		FullName:   "New Hire",
		Email:      " New.Hire@Example.com ",
		ManagerID:  strp(managerID),
		BaseSalary: "6000",
	})
	require.NoError(t, err)

	assert.Equal(t, "new.hire@example.com", resp.Email)
	assert.Equal(t, "employee", resp.Role)
	assert.Equal(t, 45, resp.MonthlyLateBalanceMinutes)
	assert.Equal(t, 21, resp.LeaveBalance)
	assert.Equal(t, 7, resp.EmergencyLeaveBalance)
	assert.Equal(t, []audit.Action{audit.ActionInsert}, f.recorder.Actions())
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	base := employee.CreateEmployeeRequest{FullName: "X", Email: "x@example.com", BaseSalary: "100"}

	_, err := f.svc.Create(ctx, manager, base)
	assert.ErrorIs(t, err, user.ErrAdminAccessRequired)

	dup := base
	dup.Email = "SAM@example.com"
	_, err = f.svc.Create(ctx, admin, dup)
	assert.ErrorIs(t, err, employee.ErrEmailExists)

	unknownManager := base
	unknownManager.ManagerID = strp("0b7d0c9e-0000-4000-8000-0000000000ff")
	_, err = f.svc.Create(ctx, admin, unknownManager)
	assert.ErrorIs(t, err, employee.ErrManagerNotFound)
}

func TestUpdate_OverridesAndClear(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.Update(ctx, admin, staffID, employee.UpdateEmployeeRequest{
		OverrideFields: employee.OverrideFields{
			VerificationLevel: intp(3),
			Level3Mode:        strp("selfie_ip"),
			AllowedWifiIPs:    []string{"10.0.0.0/8"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.VerificationLevel)
	assert.Equal(t, 3, *resp.VerificationLevel)
	assert.Equal(t, policy.ModeSelfie|policy.ModeWifiIP, *resp.Level3Mode)

	resp, err = f.svc.Update(ctx, admin, staffID, employee.UpdateEmployeeRequest{ClearOverrides: true})
	require.NoError(t, err)
	assert.Nil(t, resp.VerificationLevel)
	assert.Nil(t, resp.AllowedWifiIPs)
	assert.Equal(t, []audit.Action{audit.ActionUpdate, audit.ActionUpdate}, f.recorder.Actions())

	_, err = f.svc.Update(ctx, admin, staffID, employee.UpdateEmployeeRequest{ManagerID: strp(staffID)})
	assert.ErrorIs(t, err, employee.ErrSelfManager)
}

func TestOverrides_MustResolveToUsablePolicy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := fixtures.DefaultCompanyPolicy(companyID)
	p.VerificationLevel = policy.LevelNone
	p.Level3Mode = 0
	f.policies[companyID] = p

	levelThree := employee.UpdateEmployeeRequest{OverrideFields: employee.OverrideFields{VerificationLevel: intp(3)}}
	_, err := f.svc.Update(ctx, admin, staffID, levelThree)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "level3_verification_mode")
	assert.Empty(t, f.recorder.Actions(), "nothing was written")

	got, err := f.store.GetByID(ctx, companyID, staffID)
	require.NoError(t, err)
	assert.Nil(t, got.VerificationLevel)

	_, err = f.svc.Create(ctx, admin, employee.CreateEmployeeRequest{
		FullName:       "Level Three",
		Email:          "three@example.com",
		BaseSalary:     "6000",
		OverrideFields: employee.OverrideFields{VerificationLevel: intp(3)},
	})
	require.ErrorAs(t, err, &verrs)

	// an override mode makes it usable
	levelThree.Level3Mode = strp("location")
	_, err = f.svc.Update(ctx, admin, staffID, levelThree)
	require.NoError(t, err)

	// so does a company mode
	p.Level3Mode = policy.ModeSelfie
	f.policies[companyID] = p
	_, err = f.svc.Update(ctx, admin, managerID, employee.UpdateEmployeeRequest{OverrideFields: employee.OverrideFields{VerificationLevel: intp(3)}})
	require.NoError(t, err)
}

func TestGetAndList_Access(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Get(ctx, staff, staffID)
	assert.NoError(t, err, "employees can read themselves")

	_, err = f.svc.Get(ctx, staff, managerID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	list, err := f.svc.List(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = f.svc.List(ctx, staff)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestGetVerification_ResolvesOverrides(t *testing.T) {
	f := newFixture()
	p := fixtures.DefaultCompanyPolicy(companyID)
	p.VerificationLevel = policy.LevelApprover
	f.policies[companyID] = p

	v, err := f.svc.GetVerification(context.Background(), staff, staffID)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Level)
	assert.Equal(t, managerID, *v.ApproverID, "the direct manager approves when no approver is named")
}

func TestDelete_GoesThroughRegistry(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.svc.Delete(context.Background(), admin, staffID))
	assert.Equal(t, []string{"employee:" + staffID}, f.deleter.Deleted)

	err := f.svc.Delete(context.Background(), admin, adminID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}
