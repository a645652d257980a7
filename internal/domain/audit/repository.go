package audit

import (
	"context"
	"encoding/json"
	"time"
)

type AuditRepository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, companyID string, filter ListAuditFilter) ([]Entry, error)
}

type DeletedRecordRepository interface {
	Create(ctx context.Context, r DeletedRecord) (DeletedRecord, error)
	GetByID(ctx context.Context, companyID, id string) (DeletedRecord, error)
	List(ctx context.Context, companyID string, kind *Kind) ([]DeletedRecord, error)
	// MarkRestored flips is_restored once, reporting false if it was already set.
	MarkRestored(ctx context.Context, companyID, id string, restoredBy *string, at time.Time) (bool, error)
}

// RecordStore removes and re-inserts rows of one kind. Snapshot is taken
// before Remove; Restore receives that snapshot back.
type RecordStore interface {
	Snapshot(ctx context.Context, companyID, id string) (json.RawMessage, error)
	Remove(ctx context.Context, companyID, id string) error
	Restore(ctx context.Context, companyID string, data json.RawMessage) error
}
