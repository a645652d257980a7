package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestColumns = `
	lr.id, lr.company_id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date, lr.days,
	lr.reason, lr.status, lr.reviewed_by, lr.reviewed_at, lr.rejection_reason,
	lr.created_at, lr.updated_at, e.full_name`

const leaveRequestFrom = `
	FROM leave_requests lr
	LEFT JOIN employees e ON e.id = lr.employee_id`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		r         leave.LeaveRequest
		leaveType string
		status    string
	)
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.EmployeeID, &leaveType, &r.StartDate, &r.EndDate, &r.Days,
		&r.Reason, &status, &r.ReviewedBy, &r.ReviewedAt, &r.RejectionReason,
		&r.CreatedAt, &r.UpdatedAt, &r.EmployeeName,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	r.LeaveType = leave.LeaveType(leaveType)
	r.Status = leave.LeaveRequestStatus(status)
	return r, nil
}

func collectLeaveRequests(rows pgx.Rows) ([]leave.LeaveRequest, error) {
	defer rows.Close()
	var out []leave.LeaveRequest
	for rows.Next() {
		r, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveRequestColumns + leaveRequestFrom + ` WHERE lr.id = $1 AND lr.company_id = $2`

	req, err := scanLeaveRequest(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request with id %s: %w", id, err)
	}
	return req, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO leave_requests (company_id, employee_id, leave_type, start_date, end_date, days, reason, status)
		VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8)
		RETURNING id`

	status := req.Status
	if status == "" {
		status = leave.LeaveRequestStatusPending
	}
	var id string
	err := q.QueryRow(ctx, query,
		req.CompanyID, req.EmployeeID, string(req.LeaveType),
		dateOnly(req.StartDate), dateOnly(req.EndDate), req.Days, req.Reason, string(status),
	).Scan(&id)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return r.GetByID(ctx, req.CompanyID, id)
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, companyID string, filter leave.ListLeaveRequestsFilter) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE lr.company_id = $1"
	args := []interface{}{companyID}
	argIndex := 2

	if filter.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND lr.employee_id = $%d", argIndex)
		args = append(args, *filter.EmployeeID)
		argIndex++
	}
	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND lr.status = $%d", argIndex)
		args = append(args, string(*filter.Status))
	}

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY lr.created_at DESC`, leaveRequestColumns, leaveRequestFrom, whereClause)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return collectLeaveRequests(rows)
}

// UpdateStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, companyID, id string, from, to leave.LeaveRequestStatus, reviewerID *string, rejectionReason *string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, `
		UPDATE leave_requests
		SET status = $4, reviewed_by = $5, rejection_reason = $6, reviewed_at = $7, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = $3`,
		id, companyID, string(from), string(to), reviewerID, rejectionReason, at)
	if err != nil {
		return false, fmt.Errorf("failed to update leave request status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CheckOverlapping implements leave.LeaveRequestRepository. Rejected requests never block.
func (r *leaveRequestRepositoryImpl) CheckOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE company_id = $1 AND employee_id = $2
			  AND status IN ('pending', 'approved')
			  AND start_date <= $4::date AND end_date >= $3::date
		)`

	var exists bool
	if err := q.QueryRow(ctx, query, companyID, employeeID, dateOnly(start), dateOnly(end)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check overlapping leave: %w", err)
	}
	return exists, nil
}

// ListApprovedInRange implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveRequestColumns + leaveRequestFrom + `
		WHERE lr.company_id = $1 AND lr.status = 'approved'
		  AND lr.start_date <= $3::date AND lr.end_date >= $2::date
		ORDER BY lr.start_date`

	rows, err := q.Query(ctx, query, companyID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}
	return collectLeaveRequests(rows)
}
