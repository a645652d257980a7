package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// Registry maps each record kind to the store that can remove and restore it.
type Registry map[audit.Kind]audit.RecordStore

// Validate fails when a known kind has no store, so gaps surface at startup.
func (r Registry) Validate() error {
	for _, k := range audit.AllKinds() {
		if r[k] == nil {
			return fmt.Errorf("record registry: no store for kind %q", k)
		}
	}
	return nil
}

type RecordServiceImpl struct {
	tx       database.Transactor
	deleted  audit.DeletedRecordRepository
	audits   audit.AuditRepository
	recorder audit.Recorder
	registry Registry
	now      func() time.Time
}

func NewRecordService(
	tx database.Transactor,
	deleted audit.DeletedRecordRepository,
	audits audit.AuditRepository,
	recorder audit.Recorder,
	registry Registry,
) (*RecordServiceImpl, error) {
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return &RecordServiceImpl{
		tx:       tx,
		deleted:  deleted,
		audits:   audits,
		recorder: recorder,
		registry: registry,
		now:      time.Now,
	}, nil
}

func (s *RecordServiceImpl) store(kind audit.Kind) (audit.RecordStore, error) {
	st, ok := s.registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", audit.ErrUnknownKind, kind)
	}
	return st, nil
}

// Delete implements audit.RecordService.
func (s *RecordServiceImpl) Delete(ctx context.Context, caller user.Caller, kind audit.Kind, id string) error {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return err
	}
	return s.DeleteRecord(ctx, caller, kind, id)
}

// DeleteRecord implements audit.Deleter.
func (s *RecordServiceImpl) DeleteRecord(ctx context.Context, actor user.Caller, kind audit.Kind, id string) error {
	st, err := s.store(kind)
	if err != nil {
		return err
	}

	var actorID *string
	if actor.EmployeeID != "" {
		actorID = &actor.EmployeeID
	}

	var rec audit.DeletedRecord
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		snapshot, err := st.Snapshot(ctx, actor.CompanyID, id)
		if err != nil {
			return err
		}

		rec, err = s.deleted.Create(ctx, audit.DeletedRecord{
			CompanyID:  actor.CompanyID,
			Kind:       kind,
			RecordID:   id,
			RecordData: snapshot,
			DeletedBy:  actorID,
			DeletedAt:  s.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to log deleted record: %w", err)
		}

		return st.Remove(ctx, actor.CompanyID, id)
	})
	if err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   actor.CompanyID,
		ActorID:     actorID,
		TableName:   kind.Table(),
		RecordID:    id,
		Action:      audit.ActionDelete,
		OldData:     rec.RecordData,
		Description: fmt.Sprintf("Deleted %s %s", kind, id),
	})
	return nil
}

// Restore implements audit.RecordService.
func (s *RecordServiceImpl) Restore(ctx context.Context, caller user.Caller, deletedRecordID string) (audit.DeletedRecordResponse, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return audit.DeletedRecordResponse{}, err
	}

	rec, err := s.deleted.GetByID(ctx, caller.CompanyID, deletedRecordID)
	if err != nil {
		return audit.DeletedRecordResponse{}, err
	}
	if rec.IsRestored {
		return audit.DeletedRecordResponse{}, audit.ErrAlreadyRestored
	}
	st, err := s.store(rec.Kind)
	if err != nil {
		return audit.DeletedRecordResponse{}, err
	}

	now := s.now()
	restoredBy := caller.EmployeeID
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.deleted.MarkRestored(ctx, caller.CompanyID, rec.ID, &restoredBy, now)
		if err != nil {
			return err
		}
		if !ok {
			return audit.ErrAlreadyRestored
		}
		return st.Restore(ctx, caller.CompanyID, rec.RecordData)
	})
	if err != nil {
		return audit.DeletedRecordResponse{}, err
	}

	rec.IsRestored = true
	rec.RestoredBy = &restoredBy
	rec.RestoredAt = &now

	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &restoredBy,
		TableName:   rec.Kind.Table(),
		RecordID:    rec.RecordID,
		Action:      audit.ActionRestore,
		NewData:     rec.RecordData,
		Description: fmt.Sprintf("Restored %s %s", rec.Kind, rec.RecordID),
	})

	return audit.ToDeletedRecordResponse(rec), nil
}

func (s *RecordServiceImpl) ListDeleted(ctx context.Context, caller user.Caller, kind *audit.Kind) ([]audit.DeletedRecordResponse, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return nil, err
	}
	if kind != nil {
		if _, err := s.store(*kind); err != nil {
			return nil, err
		}
	}

	records, err := s.deleted.List(ctx, caller.CompanyID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted records: %w", err)
	}
	out := make([]audit.DeletedRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, audit.ToDeletedRecordResponse(r))
	}
	return out, nil
}

func (s *RecordServiceImpl) ListAudit(ctx context.Context, caller user.Caller, filter audit.ListAuditFilter) ([]audit.EntryResponse, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return nil, err
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultAuditLimit
	case filter.Limit > maxAuditLimit:
		filter.Limit = maxAuditLimit
	}

	entries, err := s.audits.List(ctx, caller.CompanyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	out := make([]audit.EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, audit.ToEntryResponse(e))
	}
	return out, nil
}

