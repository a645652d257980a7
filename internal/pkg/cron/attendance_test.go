package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type companies []string

func (c companies) ListCompanyIDs(ctx context.Context) ([]string, error) { return c, nil }

type rejecter struct {
	calls map[string]time.Time
	err   error
}

func (r *rejecter) AutoRejectExpired(ctx context.Context, companyID string, now time.Time) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.calls[companyID] = now
	return 1, nil
}

type generator struct {
	months []string
}

func (g *generator) GenerateForCompany(ctx context.Context, companyID string, month time.Time) (int, error) {
	g.months = append(g.months, companyID+"@"+month.Format("2006-01"))
	return 3, nil
}

func newJobs(t *testing.T, now time.Time) (*AttendanceJobs, *fixtures.EmployeeStore, *rejecter, *generator) {
	t.Helper()
	p := fixtures.DefaultCompanyPolicy("c1")
	p.Timezone = "UTC"
	employees := fixtures.NewEmployeeStore(
		employee.Employee{ID: "e1", CompanyID: "c1", FullName: "One", MonthlyLateBalanceMinutes: 5},
	)
	rej := &rejecter{calls: map[string]time.Time{}}
	gen := &generator{}
	jobs := NewAttendanceJobs(companies{"c1"}, fixtures.Policies{"c1": p}, employees, rej, gen)
	jobs.now = func() time.Time { return now }
	return jobs, employees, rej, gen
}

func TestResetMonthlyLateBalances_OnlyOnTheFirst(t *testing.T) {
	ctx := context.Background()

	jobs, employees, _, _ := newJobs(t, time.Date(2024, 6, 2, 0, 30, 0, 0, time.UTC))
	require.NoError(t, jobs.ResetMonthlyLateBalances(ctx))
	assert.Equal(t, 5, employees.Row("e1").MonthlyLateBalanceMinutes)

	jobs, employees, _, _ = newJobs(t, time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC))
	require.NoError(t, jobs.ResetMonthlyLateBalances(ctx))
	assert.Equal(t, 60, employees.Row("e1").MonthlyLateBalanceMinutes)

	// a second run the same day must not refill balance already used
	e := employees.Row("e1")
	e.MonthlyLateBalanceMinutes = 40
	employees.Put(e)
	require.NoError(t, jobs.ResetMonthlyLateBalances(ctx))
	assert.Equal(t, 40, employees.Row("e1").MonthlyLateBalanceMinutes)
}

func TestAutoRejectPending(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	jobs, _, rej, _ := newJobs(t, now)

	require.NoError(t, jobs.AutoRejectPending(context.Background()))
	assert.Equal(t, now, rej.calls["c1"])

	rej.err = errors.New("db down")
	assert.Error(t, jobs.AutoRejectPending(context.Background()))
}

func TestGenerateAutoAdjustments_PreviousMonthOnce(t *testing.T) {
	jobs, _, _, gen := newJobs(t, time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC))

	require.NoError(t, jobs.GenerateAutoAdjustments(context.Background()))
	require.NoError(t, jobs.GenerateAutoAdjustments(context.Background()))
	assert.Equal(t, []string{"c1@2024-12"}, gen.months)
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var ran []string
	s.AddJob("a", time.Hour, func(ctx context.Context) error { ran = append(ran, "a"); return nil })
	s.AddJob("b", time.Hour, func(ctx context.Context) error { ran = append(ran, "b"); return errors.New("boom") })
	s.AddJob("c", time.Hour, func(ctx context.Context) error { ran = append(ran, "c"); panic("nil policy") })

	err := s.RunOnce(context.Background())
	assert.Equal(t, []string{"a", "b", "c"}, ran)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: boom")
	assert.Contains(t, err.Error(), "panicked: nil policy")
}

func TestScheduler_SkipsOverlappingTick(t *testing.T) {
	s := NewScheduler()
	calls := 0
	s.AddJob("slow", time.Hour, func(ctx context.Context) error { calls++; return nil })

	j := s.jobs[0]
	j.running.Store(true)
	s.tick(context.Background(), j)
	assert.Zero(t, calls)

	j.running.Store(false)
	s.tick(context.Background(), j)
	assert.Equal(t, 1, calls)
	assert.False(t, j.running.Load())
}

func TestScheduler_TimeoutBoundsRun(t *testing.T) {
	s := NewScheduler()
	s.Timeout = 10 * time.Millisecond
	s.AddJob("bounded", time.Hour, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
