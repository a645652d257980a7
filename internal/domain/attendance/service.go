package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

type AttendanceService interface {
	CheckIn(ctx context.Context, caller user.Caller, req CheckRequest) (CheckResult, error)
	CheckOut(ctx context.Context, caller user.Caller, req CheckRequest) (CheckResult, error)
	StartBreak(ctx context.Context, caller user.Caller) (LogResponse, error)
	EndBreak(ctx context.Context, caller user.Caller) (LogResponse, error)
	Today(ctx context.Context, caller user.Caller) (*LogResponse, error)
	ListMy(ctx context.Context, caller user.Caller, filter ListLogsFilter) ([]LogResponse, error)

	ListPending(ctx context.Context, caller user.Caller) ([]PendingResponse, error)
	ApprovePending(ctx context.Context, caller user.Caller, id string, req ReviewPendingRequest) (PendingResponse, error)
	RejectPending(ctx context.Context, caller user.Caller, id string, req ReviewPendingRequest) (PendingResponse, error)

	// AutoRejectExpired closes pending rows older than the company's timeout.
	AutoRejectExpired(ctx context.Context, companyID string, now time.Time) (int, error)
}
