package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
)

type companyLister interface {
	ListCompanyIDs(ctx context.Context) ([]string, error)
}

type pendingRejecter interface {
	AutoRejectExpired(ctx context.Context, companyID string, now time.Time) (int, error)
}

type adjustmentGenerator interface {
	GenerateForCompany(ctx context.Context, companyID string, month time.Time) (int, error)
}

// AttendanceJobs are the per-company housekeeping jobs. Each job walks every
// company and works in that company's local time.
type AttendanceJobs struct {
	companies   companyLister
	policies    policy.PolicyService
	employees   employee.EmployeeRepository
	pending     pendingRejecter
	adjustments adjustmentGenerator
	now         func() time.Time

	mu   sync.Mutex
	done map[string]string // job/company -> last period handled
}

func NewAttendanceJobs(
	companies companyLister,
	policies policy.PolicyService,
	employees employee.EmployeeRepository,
	pending pendingRejecter,
	adjustments adjustmentGenerator,
) *AttendanceJobs {
	return &AttendanceJobs{
		companies:   companies,
		policies:    policies,
		employees:   employees,
		pending:     pending,
		adjustments: adjustments,
		now:         time.Now,
		done:        make(map[string]string),
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, pendingInterval time.Duration) {
	scheduler.AddJob("reset_monthly_late_balance", 1*time.Hour, j.ResetMonthlyLateBalances)
	scheduler.AddJob("auto_reject_pending_attendance", pendingInterval, j.AutoRejectPending)
	scheduler.AddJob("generate_auto_adjustments", 1*time.Hour, j.GenerateAutoAdjustments)
}

// once reports whether key has not yet run for period, and marks it.
func (j *AttendanceJobs) once(key, period string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done[key] == period {
		return false
	}
	j.done[key] = period
	return true
}

func (j *AttendanceJobs) forEachCompany(ctx context.Context, job string, fn func(ctx context.Context, companyID string, p policy.CompanyPolicy) error) error {
	ids, err := j.companies.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p, err := j.policies.Get(ctx, id)
		if err == nil {
			err = fn(ctx, id, p)
		}
		if err != nil {
			failed++
			slog.ErrorContext(ctx, "Cron: company step failed", "job", job, "company_id", id, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%s failed for %d of %d companies", job, failed, len(ids))
	}
	return nil
}

// ResetMonthlyLateBalances refills every employee's late balance on the first
// day of the month, company local time.
func (j *AttendanceJobs) ResetMonthlyLateBalances(ctx context.Context) error {
	return j.forEachCompany(ctx, "reset_monthly_late_balance", func(ctx context.Context, companyID string, p policy.CompanyPolicy) error {
		local := j.now().In(p.Location())
		if local.Day() != 1 || !j.once("reset/"+companyID, local.Format("2006-01")) {
			return nil
		}
		n, err := j.employees.ResetLateBalances(ctx, companyID, p.MonthlyLateAllowanceMinutes)
		if err != nil {
			j.forget("reset/" + companyID)
			return err
		}
		slog.InfoContext(ctx, "Cron: late balances reset", "company_id", companyID, "employees", n, "minutes", p.MonthlyLateAllowanceMinutes)
		return nil
	})
}

// AutoRejectPending closes pending verifications older than the company timeout.
func (j *AttendanceJobs) AutoRejectPending(ctx context.Context) error {
	now := j.now()
	return j.forEachCompany(ctx, "auto_reject_pending_attendance", func(ctx context.Context, companyID string, _ policy.CompanyPolicy) error {
		n, err := j.pending.AutoRejectExpired(ctx, companyID, now)
		if err != nil {
			return err
		}
		if n > 0 {
			slog.InfoContext(ctx, "Cron: pending attendance auto-rejected", "company_id", companyID, "count", n)
		}
		return nil
	})
}

// GenerateAutoAdjustments books last month's auto adjustments on the first
// day of the month. Generation is idempotent, so a retry after a restart is safe.
func (j *AttendanceJobs) GenerateAutoAdjustments(ctx context.Context) error {
	return j.forEachCompany(ctx, "generate_auto_adjustments", func(ctx context.Context, companyID string, p policy.CompanyPolicy) error {
		local := j.now().In(p.Location())
		if local.Day() != 1 {
			return nil
		}
		prev := time.Date(local.Year(), local.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		if !j.once("adjust/"+companyID, prev.Format("2006-01")) {
			return nil
		}
		n, err := j.adjustments.GenerateForCompany(ctx, companyID, prev)
		if err != nil {
			j.forget("adjust/" + companyID)
			return err
		}
		slog.InfoContext(ctx, "Cron: auto adjustments generated", "company_id", companyID, "month", prev.Format("2006-01"), "created", n)
		return nil
	})
}

func (j *AttendanceJobs) forget(key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.done, key)
}
