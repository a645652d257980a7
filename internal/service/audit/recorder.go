package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"
)

type recorder struct {
	repo audit.AuditRepository
	now  func() time.Time
}

// NewRecorder returns the best-effort audit sink every mutating service writes to.
func NewRecorder(repo audit.AuditRepository) audit.Recorder {
	return &recorder{repo: repo, now: time.Now}
}

func (r *recorder) Record(ctx context.Context, e audit.Entry) {
	if !e.Action.Valid() {
		slog.ErrorContext(ctx, "audit entry dropped, unknown action",
			"table", e.TableName, "record_id", e.RecordID, "action", e.Action)
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	// the primary mutation already committed; a cancelled request must not lose its audit row
	ctx = context.WithoutCancel(ctx)

	err := apperror.RetryOnce(ctx, func(ctx context.Context) error {
		return r.repo.Append(ctx, e)
	})
	if err != nil {
		slog.ErrorContext(ctx, "audit append failed",
			"table", e.TableName,
			"record_id", e.RecordID,
			"action", e.Action,
			"error", err,
		)
	}
}
