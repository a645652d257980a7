package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/cmlabs-hris/hris-policy-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmployee(t *testing.T, companyID, email string) employee.Employee {
	t.Helper()
	repo := postgresql.NewEmployeeRepository(testDB)
	e, err := repo.Create(t.Context(), employee.Employee{
		CompanyID:                 companyID,
		FullName:                  "Test " + email,
		Email:                     email,
		Role:                      user.RoleEmployee,
		SalaryType:                employee.SalaryTypeMonthly,
		BaseSalary:                decimal.NewFromInt(6_000_000),
		MonthlyLateBalanceMinutes: 60,
		LeaveBalance:              fixtures.DefaultLeaveBalance,
		EmergencyLeaveBalance:     fixtures.DefaultEmergencyLeaveBalance,
	})
	require.NoError(t, err)
	return e
}

func TestEmployeeRepository_BalanceSwaps(t *testing.T) {
	truncate(t)
	ctx := t.Context()
	repo := postgresql.NewEmployeeRepository(testDB)
	companyID := uuid.NewString()
	e := newEmployee(t, companyID, "budi@example.com")

	ok, err := repo.CompareAndSwapLateBalance(ctx, companyID, e.ID, 60, 45)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale read loses
	ok, err = repo.CompareAndSwapLateBalance(ctx, companyID, e.ID, 60, 30)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.CompareAndSwapLeaveBalances(ctx, companyID, e.ID,
		employee.LeaveBalances{Leave: 21, Emergency: 7},
		employee.LeaveBalances{Leave: 18, Emergency: 4})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, companyID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.MonthlyLateBalanceMinutes)
	assert.Equal(t, 18, got.LeaveBalance)
	assert.Equal(t, 4, got.EmergencyLeaveBalance)

	n, err := repo.ResetLateBalances(ctx, companyID, 60)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.GetByID(ctx, uuid.NewString(), e.ID)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	exists, err := repo.EmailExists(ctx, companyID, "BUDI@example.com", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.EmailExists(ctx, companyID, "budi@example.com", &e.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPolicyRepository_UpsertRoundTrip(t *testing.T) {
	truncate(t)
	ctx := t.Context()
	repo := postgresql.NewPolicyRepository(testDB)
	companyID := uuid.NewString()

	_, err := repo.GetByCompanyID(ctx, companyID)
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)

	p := fixtures.DefaultCompanyPolicy(companyID)
	p.VerificationLevel = policy.LevelEvidence
	p.Level3Mode = policy.ModeLocation | policy.ModeWifiIP
	p.WeekendDays = []time.Weekday{time.Friday, time.Saturday}

	_, err = repo.Upsert(ctx, p)
	require.NoError(t, err)

	got, err := repo.GetByCompanyID(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, "location_ip", got.Level3Mode.String())
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, got.WeekendDays)
	assert.True(t, p.LateTier1Deduction.Equal(got.LateTier1Deduction))
}

func TestAttendanceRepositories(t *testing.T) {
	truncate(t)
	ctx := t.Context()
	logs := postgresql.NewAttendanceLogRepository(testDB)
	pending := postgresql.NewPendingAttendanceRepository(testDB)
	companyID := uuid.NewString()
	e := newEmployee(t, companyID, "sari@example.com")
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	in := day.Add(2 * time.Hour)

	created, err := logs.Create(ctx, attendance.Log{
		CompanyID: companyID, EmployeeID: e.ID, Date: day,
		CheckInTime: &in, Status: attendance.LogStatusCheckedIn,
		LateMinutes: 20, LateTier: attendance.TierLate1, LateDeductionDays: decimal.NewFromFloat(0.25),
	})
	require.NoError(t, err)

	_, err = logs.Create(ctx, attendance.Log{CompanyID: companyID, EmployeeID: e.ID, Date: day, Status: attendance.LogStatusCheckedIn})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	got, err := logs.GetByEmployeeDate(ctx, companyID, e.ID, day)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, attendance.TierLate1, got.LateTier)

	list, err := logs.ListByCompanyRange(ctx, companyID, day.AddDate(0, 0, -1), day)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	p, err := pending.Create(ctx, attendance.PendingAttendance{
		CompanyID: companyID, EmployeeID: e.ID, Kind: attendance.PendingKindCheckIn, Date: day,
		RequestedAt: in, VerificationLevel: policy.LevelApprover,
	})
	require.NoError(t, err)

	open, err := pending.FindOpen(ctx, companyID, e.ID, attendance.PendingKindCheckIn, day)
	require.NoError(t, err)
	require.NotNil(t, open)

	ok, err := pending.Decide(ctx, companyID, p.ID, attendance.PendingStatusApproved, nil, nil, in.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = pending.Decide(ctx, companyID, p.ID, attendance.PendingStatusRejected, nil, nil, in.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "first decision wins")
}

func TestAdjustmentRepository_CreateAutoIsIdempotent(t *testing.T) {
	truncate(t)
	ctx := t.Context()
	repo := postgresql.NewAdjustmentRepository(testDB)
	companyID := uuid.NewString()
	e := newEmployee(t, companyID, "agus@example.com")
	key := "late:2025-03-04"

	adj := payroll.SalaryAdjustment{
		CompanyID: companyID, EmployeeID: e.ID, Month: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Deduction: decimal.NewFromInt(50_000), SourceKey: &key, Reason: "late tier 1",
	}
	wrote, err := repo.CreateAuto(ctx, adj)
	require.NoError(t, err)
	assert.True(t, wrote)
	wrote, err = repo.CreateAuto(ctx, adj)
	require.NoError(t, err)
	assert.False(t, wrote)

	rows, err := repo.ListByEmployeeMonth(ctx, companyID, e.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsAutoGenerated)
}

func TestRecordStore_SnapshotRemoveRestore(t *testing.T) {
	truncate(t)
	ctx := t.Context()
	companyID := uuid.NewString()
	e := newEmployee(t, companyID, "rina@example.com")
	requests := postgresql.NewLeaveRequestRepository(testDB)

	req, err := requests.Create(ctx, leave.LeaveRequest{
		CompanyID: companyID, EmployeeID: e.ID, LeaveType: leave.LeaveTypeVacation,
		StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Days: 2, Reason: "trip",
	})
	require.NoError(t, err)

	store, err := postgresql.NewRecordStore(testDB, audit.KindLeaveRequest)
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx, companyID, req.ID)
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, companyID, req.ID))

	_, err = requests.GetByID(ctx, companyID, req.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

	// a different tenant cannot restore the snapshot
	assert.ErrorIs(t, store.Restore(ctx, uuid.NewString(), snap), audit.ErrRecordNotFound)

	require.NoError(t, store.Restore(ctx, companyID, snap))
	assert.ErrorIs(t, store.Restore(ctx, companyID, snap), audit.ErrRecordExists)

	back, err := requests.GetByID(ctx, companyID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "trip", back.Reason)

	_, err = postgresql.NewRecordStore(testDB, audit.Kind("payslips"))
	assert.ErrorIs(t, err, audit.ErrUnknownKind)
}

func TestNotificationRepository_BatchAndRead(t *testing.T) {
	truncate(t)
	ctx := t.Context()
	repo := postgresql.NewNotificationRepository(testDB)
	companyID := uuid.NewString()
	recipient := uuid.NewString()

	batch := []*notification.Notification{
		{CompanyID: companyID, RecipientID: recipient, Type: notification.TypeLeaveApproved, Title: "a", Message: "a"},
		{CompanyID: companyID, RecipientID: recipient, Type: notification.TypePointsGranted, Title: "b", Message: "b",
			Data: map[string]interface{}{"points": float64(25)}},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	count, err := repo.GetUnreadCount(ctx, companyID, recipient)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.MarkAsRead(ctx, companyID, recipient, []string{batch[0].ID}))
	items, total, err := repo.ListByRecipient(ctx, companyID, recipient, 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, float64(25), items[0].Data["points"])

	require.NoError(t, repo.MarkAllAsRead(ctx, companyID, recipient))
	count, err = repo.GetUnreadCount(ctx, companyID, recipient)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTxManager_RollbackAndNesting(t *testing.T) {
	truncate(t)
	ctx := t.Context()
	tx := postgresql.NewTxManager(testDB)
	repo := postgresql.NewEmployeeRepository(testDB)
	companyID := uuid.NewString()
	e := newEmployee(t, companyID, "dewi@example.com")

	boom := errors.New("ledger insert failed")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := repo.CompareAndSwapLateBalance(ctx, companyID, e.ID, 60, 10)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, companyID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.MonthlyLateBalanceMinutes, "swap rolled back")

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := repo.CompareAndSwapLateBalance(ctx, companyID, e.ID, 60, 30)
			return err
		})
	})
	require.NoError(t, err)
	got, err = repo.GetByID(ctx, companyID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.MonthlyLateBalanceMinutes)
}
