package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// recordStore snapshots rows as JSONB and re-inserts them verbatim, so a
// restored row keeps its original id and timestamps.
type recordStore struct {
	db    *database.DB
	table string
}

// NewRecordStore returns the store for one kind. Table names come from
// audit.Kind.Table(), never from user input.
func NewRecordStore(db *database.DB, kind audit.Kind) (audit.RecordStore, error) {
	table := kind.Table()
	if table == "" {
		return nil, audit.ErrUnknownKind
	}
	return &recordStore{db: db, table: table}, nil
}

// NewRecordStores builds a store for every known kind.
func NewRecordStores(db *database.DB) map[audit.Kind]audit.RecordStore {
	stores := make(map[audit.Kind]audit.RecordStore, len(audit.AllKinds()))
	for _, k := range audit.AllKinds() {
		s, err := NewRecordStore(db, k)
		if err != nil {
			continue
		}
		stores[k] = s
	}
	return stores
}

// Snapshot implements audit.RecordStore.
func (s *recordStore) Snapshot(ctx context.Context, companyID, id string) (json.RawMessage, error) {
	q := GetQuerier(ctx, s.db)
	query := fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t WHERE t.id = $1 AND t.company_id = $2`, s.table)

	var data json.RawMessage
	if err := q.QueryRow(ctx, query, id, companyID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, audit.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to snapshot %s row %s: %w", s.table, id, err)
	}
	return data, nil
}

// Remove implements audit.RecordStore.
func (s *recordStore) Remove(ctx context.Context, companyID, id string) error {
	q := GetQuerier(ctx, s.db)
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND company_id = $2`, s.table)

	tag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete %s row %s: %w", s.table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return audit.ErrRecordNotFound
	}
	return nil
}

// Restore implements audit.RecordStore. The snapshot must belong to companyID.
func (s *recordStore) Restore(ctx context.Context, companyID string, data json.RawMessage) error {
	q := GetQuerier(ctx, s.db)
	query := fmt.Sprintf(`
		INSERT INTO %[1]s
		SELECT * FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb) r
		WHERE r.company_id::text = $2`, s.table)

	tag, err := q.Exec(ctx, query, data, companyID)
	if err != nil {
		if isUniqueViolation(err) {
			return audit.ErrRecordExists
		}
		return fmt.Errorf("failed to restore %s row: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return audit.ErrRecordNotFound
	}
	return nil
}
