package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID  = "company-1"
	staffID    = "5b0c1a34-3f0e-4f6e-9d55-0f1f7a7f0001"
	contractID = "5b0c1a34-3f0e-4f6e-9d55-0f1f7a7f0002"
)

type harness struct {
	svc         *PayrollServiceImpl
	adjustments *fixtures.AdjustmentStore
	logs        *fixtures.LogStore
	pending     *fixtures.PendingStore
	recorder    *fixtures.Recorder
}

func newHarness(logs ...attendance.Log) *harness {
	p := fixtures.DefaultCompanyPolicy(companyID)
	p.Timezone = "UTC"

	h := &harness{
		adjustments: fixtures.NewAdjustmentStore(),
		logs:        fixtures.NewLogStore(logs...),
		pending:     fixtures.NewPendingStore(),
		recorder:    &fixtures.Recorder{},
	}
	employees := fixtures.NewEmployeeStore(
		employee.Employee{ID: staffID, CompanyID: companyID, FullName: "A Staff", SalaryType: employee.SalaryTypeMonthly, BaseSalary: dec("6000")},
		employee.Employee{ID: contractID, CompanyID: companyID, FullName: "B Contractor", IsFreelancer: true, HourlyRate: dec("50")},
	)
	h.svc = NewPayrollService(h.adjustments, employees, h.logs, h.pending, fixtures.NewLeaveStore(),
		fixtures.Policies{companyID: p}, nil, h.recorder)
	h.svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func admin() user.Caller {
	return user.Caller{EmployeeID: "emp-admin", CompanyID: companyID, Role: user.RoleAdmin}
}

func staff() user.Caller {
	return user.Caller{EmployeeID: staffID, CompanyID: companyID, Role: user.RoleEmployee}
}

func TestCreateAdjustment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	req := payroll.CreateAdjustmentRequest{EmployeeID: staffID, Month: "2024-05", Bonus: "300", Reason: "target met"}

	_, err := h.svc.CreateAdjustment(ctx, staff(), req)
	assert.ErrorIs(t, err, user.ErrAdminAccessRequired)

	out, err := h.svc.CreateAdjustment(ctx, admin(), req)
	require.NoError(t, err)
	assert.Equal(t, "2024-05", out.Month)
	assert.False(t, out.IsAutoGenerated)
	assert.Len(t, h.recorder.Entries, 1)

	_, err = h.svc.CreateAdjustment(ctx, admin(), payroll.CreateAdjustmentRequest{EmployeeID: staffID, Month: "2024-05", Reason: "nothing"})
	assert.ErrorIs(t, err, payroll.ErrEmptyAdjustment)

	_, err = h.svc.CreateAdjustment(ctx, admin(), payroll.CreateAdjustmentRequest{EmployeeID: staffID, Month: "May", Bonus: "1", Reason: "x"})
	assert.Error(t, err)
}

func TestSummary_SelfAndAccess(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	may := payroll.MonthRequest{Month: "2024-05"}

	_, err := h.svc.CreateAdjustment(ctx, admin(), payroll.CreateAdjustmentRequest{EmployeeID: staffID, Month: "2024-05", Bonus: "300", Deduction: "100", Reason: "review"})
	require.NoError(t, err)

	s, err := h.svc.Summary(ctx, staff(), "", may)
	require.NoError(t, err)
	assert.True(t, s.NetSalary.Equal(dec("6200")), "net %s", s.NetSalary)

	_, err = h.svc.Summary(ctx, staff(), contractID, may)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = h.svc.ListAdjustments(ctx, staff(), may, nil)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	self := staffID
	rows, err := h.svc.ListAdjustments(ctx, staff(), may, &self)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCompanySummary(t *testing.T) {
	checkIn := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	h := newHarness(
		attendance.Log{CompanyID: companyID, EmployeeID: contractID, Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), CheckInTime: &checkIn, WorkedMinutes: 450},
	)

	_, err := h.svc.CompanySummary(context.Background(), staff(), payroll.MonthRequest{Month: "2024-05"})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	viewer := user.Caller{EmployeeID: "emp-viewer", CompanyID: companyID, Role: user.RoleManager,
		Permissions: []user.Permission{user.PermissionPayrollView}}
	out, err := h.svc.CompanySummary(context.Background(), viewer, payroll.MonthRequest{Month: "2024-05"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, staffID, out[0].EmployeeID)
	assert.True(t, out[0].NetSalary.Equal(dec("6000")))
	assert.Equal(t, contractID, out[1].EmployeeID)
	assert.True(t, out[1].Earned.Equal(dec("375")), "7.5 hours at 50")
	assert.True(t, out[1].WorkedHours.Equal(dec("7.5")))
}

func TestGenerateAutoAdjustments_IsIdempotent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	may := payroll.MonthRequest{Month: "2024-05"}

	_, err := h.svc.GenerateAutoAdjustments(ctx, staff(), may)
	assert.ErrorIs(t, err, user.ErrAdminAccessRequired)

	// nobody checked in during May 2024: 23 weekdays absent for the salaried
	// employee, nothing for the freelancer who is paid by the hour
	first, err := h.svc.GenerateAutoAdjustments(ctx, admin(), may)
	require.NoError(t, err)
	assert.Equal(t, 23, first.Created)

	second, err := h.svc.GenerateAutoAdjustments(ctx, admin(), may)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Len(t, h.adjustments.All(), 23)

	s, err := h.svc.Summary(ctx, staff(), "", may)
	require.NoError(t, err)
	assert.True(t, s.TotalDeduction.Equal(dec("4600")), "23 days at 6000 / 30, got %s", s.TotalDeduction)
}

func TestGenerateAutoAdjustments_SkipsQueuedCheckIns(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.pending.Create(ctx, attendance.PendingAttendance{
		CompanyID: companyID, EmployeeID: staffID, Kind: attendance.PendingKindCheckIn,
		Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Status: attendance.PendingStatusPending,
	})
	require.NoError(t, err)
	_, err = h.pending.Create(ctx, attendance.PendingAttendance{
		CompanyID: companyID, EmployeeID: staffID, Kind: attendance.PendingKindCheckIn,
		Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), Status: attendance.PendingStatusRejected,
	})
	require.NoError(t, err)

	out, err := h.svc.GenerateAutoAdjustments(ctx, admin(), payroll.MonthRequest{Month: "2024-05"})
	require.NoError(t, err)
	assert.Equal(t, 22, out.Created, "the day awaiting review is not charged")

	keys := make(map[string]bool)
	for _, a := range h.adjustments.All() {
		keys[*a.SourceKey] = true
	}
	assert.False(t, keys["absent:2024-05-02"])
	assert.True(t, keys["absent:2024-05-03"], "a rejected check-in is still an absence")
}
