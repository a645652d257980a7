package fixtures

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/google/uuid"
)

// LeaveStore is an in-memory leave.LeaveRequestRepository.
type LeaveStore struct {
	mu   sync.Mutex
	rows map[string]leave.LeaveRequest
}

func NewLeaveStore(requests ...leave.LeaveRequest) *LeaveStore {
	s := &LeaveStore{rows: make(map[string]leave.LeaveRequest)}
	for _, r := range requests {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		s.rows[r.ID] = r
	}
	return s
}

func (f *LeaveStore) GetByID(ctx context.Context, companyID, id string) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.CompanyID != companyID {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return r, nil
}

func (f *LeaveStore) Create(ctx context.Context, r leave.LeaveRequest) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now()
	f.rows[r.ID] = r
	return r, nil
}

func (f *LeaveStore) List(ctx context.Context, companyID string, filter leave.ListLeaveRequestsFilter) ([]leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range f.rows {
		if r.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *LeaveStore) UpdateStatus(ctx context.Context, companyID, id string, from, to leave.LeaveRequestStatus, reviewerID *string, reason *string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.ReviewedBy = reviewerID
	r.RejectionReason = reason
	r.ReviewedAt = &at
	f.rows[id] = r
	return true, nil
}

func (f *LeaveStore) CheckOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.EmployeeID == employeeID && r.Status != leave.LeaveRequestStatusRejected &&
			!r.StartDate.After(end) && !r.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *LeaveStore) ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range f.rows {
		if r.CompanyID == companyID && r.Status == leave.LeaveRequestStatusApproved &&
			!r.StartDate.After(to) && !r.EndDate.Before(from) {
			out = append(out, r)
		}
	}
	return out, nil
}
