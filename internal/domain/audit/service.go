package audit

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

// Recorder appends audit rows. It never fails the caller: write errors are
// retried once and then logged.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Deleter is the unguarded core of RecordService.Delete, for services that
// run their own access checks first. actor is recorded as the deleter.
type Deleter interface {
	DeleteRecord(ctx context.Context, actor user.Caller, kind Kind, id string) error
}

// RecordService deletes through the kind registry and restores from snapshots.
type RecordService interface {
	Deleter

	// Delete snapshots, logs the deleted record and removes the source row in
	// one transaction, then appends the audit row.
	Delete(ctx context.Context, caller user.Caller, kind Kind, id string) error
	Restore(ctx context.Context, caller user.Caller, deletedRecordID string) (DeletedRecordResponse, error)
	ListDeleted(ctx context.Context, caller user.Caller, kind *Kind) ([]DeletedRecordResponse, error)
	ListAudit(ctx context.Context, caller user.Caller, filter ListAuditFilter) ([]EntryResponse, error)
}
