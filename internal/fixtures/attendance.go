package fixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/google/uuid"
)

// LogStore is an in-memory attendance.LogRepository.
type LogStore struct {
	mu   sync.Mutex
	rows map[string]attendance.Log
}

func NewLogStore(logs ...attendance.Log) *LogStore {
	s := &LogStore{rows: make(map[string]attendance.Log)}
	for _, l := range logs {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		s.rows[l.ID] = l
	}
	return s
}

func (s *LogStore) GetByID(ctx context.Context, companyID, id string) (attendance.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rows[id]
	if !ok || l.CompanyID != companyID {
		return attendance.Log{}, attendance.ErrAttendanceNotFound
	}
	return l, nil
}

func (s *LogStore) GetByEmployeeDate(ctx context.Context, companyID, employeeID string, date time.Time) (attendance.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.rows {
		if l.CompanyID == companyID && l.EmployeeID == employeeID && l.Date.Equal(date) {
			return l, nil
		}
	}
	return attendance.Log{}, attendance.ErrAttendanceNotFound
}

func (s *LogStore) Create(ctx context.Context, l attendance.Log) (attendance.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	s.rows[l.ID] = l
	return l, nil
}

func (s *LogStore) Update(ctx context.Context, l attendance.Log) (attendance.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[l.ID]; !ok {
		return attendance.Log{}, attendance.ErrAttendanceNotFound
	}
	l.UpdatedAt = time.Now()
	s.rows[l.ID] = l
	return l, nil
}

func (s *LogStore) ListByEmployeeRange(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]attendance.Log, error) {
	return s.list(func(l attendance.Log) bool {
		return l.CompanyID == companyID && l.EmployeeID == employeeID && !l.Date.Before(from) && !l.Date.After(to)
	}), nil
}

func (s *LogStore) ListByCompanyRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Log, error) {
	return s.list(func(l attendance.Log) bool {
		return l.CompanyID == companyID && !l.Date.Before(from) && !l.Date.After(to)
	}), nil
}

func (s *LogStore) list(keep func(attendance.Log) bool) []attendance.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendance.Log
	for _, l := range s.rows {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// PendingStore is an in-memory attendance.PendingRepository.
type PendingStore struct {
	mu   sync.Mutex
	rows map[string]attendance.PendingAttendance
}

func NewPendingStore() *PendingStore {
	return &PendingStore{rows: make(map[string]attendance.PendingAttendance)}
}

// Row returns the stored request, zero when missing.
func (s *PendingStore) Row(id string) attendance.PendingAttendance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

func (s *PendingStore) GetByID(ctx context.Context, companyID, id string) (attendance.PendingAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok || p.CompanyID != companyID {
		return attendance.PendingAttendance{}, attendance.ErrPendingNotFound
	}
	return p, nil
}

func (s *PendingStore) FindOpen(ctx context.Context, companyID, employeeID string, kind attendance.PendingKind, date time.Time) (*attendance.PendingAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.CompanyID == companyID && p.EmployeeID == employeeID && p.Kind == kind &&
			p.Date.Equal(date) && p.Status == attendance.PendingStatusPending {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *PendingStore) Create(ctx context.Context, p attendance.PendingAttendance) (attendance.PendingAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()
	s.rows[p.ID] = p
	return p, nil
}

func (s *PendingStore) List(ctx context.Context, companyID string, status *attendance.PendingStatus) ([]attendance.PendingAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendance.PendingAttendance
	for _, p := range s.rows {
		if p.CompanyID == companyID && (status == nil || p.Status == *status) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *PendingStore) Decide(ctx context.Context, companyID, id string, status attendance.PendingStatus, reviewerID *string, note *string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok || p.CompanyID != companyID {
		return false, attendance.ErrPendingNotFound
	}
	if p.Status != attendance.PendingStatusPending {
		return false, nil
	}
	p.Status = status
	p.ReviewedBy = reviewerID
	p.ReviewNote = note
	p.ReviewedAt = &at
	s.rows[id] = p
	return true, nil
}

func (s *PendingStore) ListExpired(ctx context.Context, companyID string, cutoff time.Time) ([]attendance.PendingAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendance.PendingAttendance
	for _, p := range s.rows {
		if p.CompanyID == companyID && p.Status == attendance.PendingStatusPending && p.RequestedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}
