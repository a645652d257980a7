package fixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/google/uuid"
)

// EmployeeStore is an in-memory employee.EmployeeRepository for service tests.
// The compare-and-swap methods behave like their SQL counterparts.
type EmployeeStore struct {
	mu   sync.Mutex
	rows map[string]employee.Employee

	// BeforeSwap, when set, runs before every compare-and-swap; tests use it to
	// simulate a concurrent writer.
	BeforeSwap func(id string)
}

func NewEmployeeStore(employees ...employee.Employee) *EmployeeStore {
	s := &EmployeeStore{rows: make(map[string]employee.Employee)}
	for _, e := range employees {
		s.rows[e.ID] = e
	}
	return s
}

// Put replaces a row directly, bypassing swaps.
func (s *EmployeeStore) Put(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[e.ID] = e
}

// Row returns the stored employee, zero when missing.
func (s *EmployeeStore) Row(id string) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

func (s *EmployeeStore) GetByID(ctx context.Context, companyID, id string) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (s *EmployeeStore) List(ctx context.Context, companyID string) ([]employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []employee.Employee
	for _, e := range s.rows {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *EmployeeStore) EmailExists(ctx context.Context, companyID, email string, excludeID *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.rows {
		if e.CompanyID == companyID && e.Email == email && (excludeID == nil || e.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *EmployeeStore) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if _, ok := s.rows[e.ID]; ok {
		return employee.Employee{}, fmt.Errorf("duplicate employee id %s", e.ID)
	}
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	s.rows[e.ID] = e
	return e, nil
}

func (s *EmployeeStore) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[e.ID]
	if !ok || cur.CompanyID != e.CompanyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	// balances only move through the swaps
	e.MonthlyLateBalanceMinutes = cur.MonthlyLateBalanceMinutes
	e.LeaveBalance = cur.LeaveBalance
	e.EmergencyLeaveBalance = cur.EmergencyLeaveBalance
	e.PointsBalance = cur.PointsBalance
	e.UpdatedAt = time.Now()
	s.rows[e.ID] = e
	return e, nil
}

func (s *EmployeeStore) swap(companyID, id string, match func(employee.Employee) bool, apply func(*employee.Employee)) (bool, error) {
	if s.BeforeSwap != nil {
		s.BeforeSwap(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	if !ok || e.CompanyID != companyID {
		return false, employee.ErrEmployeeNotFound
	}
	if !match(e) {
		return false, nil
	}
	apply(&e)
	s.rows[id] = e
	return true, nil
}

func (s *EmployeeStore) CompareAndSwapLateBalance(ctx context.Context, companyID, id string, old, new int) (bool, error) {
	return s.swap(companyID, id,
		func(e employee.Employee) bool { return e.MonthlyLateBalanceMinutes == old },
		func(e *employee.Employee) { e.MonthlyLateBalanceMinutes = new })
}

func (s *EmployeeStore) CompareAndSwapLeaveBalances(ctx context.Context, companyID, id string, old, new employee.LeaveBalances) (bool, error) {
	return s.swap(companyID, id,
		func(e employee.Employee) bool { return e.LeaveBalance == old.Leave && e.EmergencyLeaveBalance == old.Emergency },
		func(e *employee.Employee) { e.LeaveBalance, e.EmergencyLeaveBalance = new.Leave, new.Emergency })
}

func (s *EmployeeStore) CompareAndSwapPoints(ctx context.Context, companyID, id string, old, new int) (bool, error) {
	return s.swap(companyID, id,
		func(e employee.Employee) bool { return e.PointsBalance == old },
		func(e *employee.Employee) { e.PointsBalance = new })
}

func (s *EmployeeStore) ResetLateBalances(ctx context.Context, companyID string, minutes int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.rows {
		if e.CompanyID == companyID {
			e.MonthlyLateBalanceMinutes = minutes
			s.rows[id] = e
			n++
		}
	}
	return n, nil
}
