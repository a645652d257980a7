package fixtures

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/google/uuid"
)

// AdjustmentStore is an in-memory payroll.AdjustmentRepository. CreateAuto
// honours the per-employee source key uniqueness of the SQL table.
type AdjustmentStore struct {
	mu   sync.Mutex
	rows []payroll.SalaryAdjustment
}

func NewAdjustmentStore(rows ...payroll.SalaryAdjustment) *AdjustmentStore {
	return &AdjustmentStore{rows: rows}
}

// All returns every stored row in insertion order.
func (s *AdjustmentStore) All() []payroll.SalaryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]payroll.SalaryAdjustment(nil), s.rows...)
}

func (s *AdjustmentStore) Create(ctx context.Context, a payroll.SalaryAdjustment) (payroll.SalaryAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New().String()
	a.CreatedAt = time.Now()
	s.rows = append(s.rows, a)
	return a, nil
}

func (s *AdjustmentStore) CreateAuto(ctx context.Context, a payroll.SalaryAdjustment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.EmployeeID == a.EmployeeID && r.SourceKey != nil && a.SourceKey != nil && *r.SourceKey == *a.SourceKey {
			return false, nil
		}
	}
	a.ID = uuid.New().String()
	a.IsAutoGenerated = true
	a.CreatedAt = time.Now()
	s.rows = append(s.rows, a)
	return true, nil
}

func (s *AdjustmentStore) ListByEmployeeMonth(ctx context.Context, companyID, employeeID string, month time.Time) ([]payroll.SalaryAdjustment, error) {
	return s.filter(func(a payroll.SalaryAdjustment) bool {
		return a.CompanyID == companyID && a.EmployeeID == employeeID && a.Month.Equal(payroll.MonthStart(month))
	}), nil
}

func (s *AdjustmentStore) ListByCompanyMonth(ctx context.Context, companyID string, month time.Time) ([]payroll.SalaryAdjustment, error) {
	return s.filter(func(a payroll.SalaryAdjustment) bool {
		return a.CompanyID == companyID && a.Month.Equal(payroll.MonthStart(month))
	}), nil
}

func (s *AdjustmentStore) filter(keep func(payroll.SalaryAdjustment) bool) []payroll.SalaryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payroll.SalaryAdjustment
	for _, a := range s.rows {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
