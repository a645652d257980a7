package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.AuditRepository {
	return &auditRepository{db: db}
}

const defaultAuditLimit = 100

// Append implements audit.AuditRepository.
func (r *auditRepository) Append(ctx context.Context, e audit.Entry) error {
	q := GetQuerier(ctx, r.db)
	_, err := q.Exec(ctx, `
		INSERT INTO audit_logs (company_id, actor_id, table_name, record_id, action, old_data, new_data, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.CompanyID, e.ActorID, e.TableName, e.RecordID, string(e.Action),
		nullableJSON(e.OldData), nullableJSON(e.NewData), e.Description)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// List implements audit.AuditRepository. Newest first.
func (r *auditRepository) List(ctx context.Context, companyID string, filter audit.ListAuditFilter) ([]audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE company_id = $1"
	args := []interface{}{companyID}
	argIndex := 2

	if filter.TableName != nil {
		whereClause += fmt.Sprintf(" AND table_name = $%d", argIndex)
		args = append(args, *filter.TableName)
		argIndex++
	}
	if filter.RecordID != nil {
		whereClause += fmt.Sprintf(" AND record_id = $%d", argIndex)
		args = append(args, *filter.RecordID)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, company_id, actor_id, table_name, record_id, action, old_data, new_data, description, created_at
		FROM audit_logs
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, whereClause, argIndex)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			e      audit.Entry
			action string
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.ActorID, &e.TableName, &e.RecordID, &action,
			&e.OldData, &e.NewData, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		e.Action = audit.Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

// nullableJSON maps an empty payload to SQL NULL.
func nullableJSON(b json.RawMessage) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

type deletedRecordRepository struct {
	db *database.DB
}

func NewDeletedRecordRepository(db *database.DB) audit.DeletedRecordRepository {
	return &deletedRecordRepository{db: db}
}

const deletedRecordColumns = `id, company_id, kind, record_id, record_data, deleted_by, deleted_at, is_restored, restored_by, restored_at`

func scanDeletedRecord(row pgx.Row) (audit.DeletedRecord, error) {
	var (
		d    audit.DeletedRecord
		kind string
	)
	err := row.Scan(&d.ID, &d.CompanyID, &kind, &d.RecordID, &d.RecordData, &d.DeletedBy, &d.DeletedAt,
		&d.IsRestored, &d.RestoredBy, &d.RestoredAt)
	if err != nil {
		return audit.DeletedRecord{}, err
	}
	d.Kind = audit.Kind(kind)
	return d, nil
}

// Create implements audit.DeletedRecordRepository.
func (r *deletedRecordRepository) Create(ctx context.Context, d audit.DeletedRecord) (audit.DeletedRecord, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO deleted_records (company_id, kind, record_id, record_data, deleted_by, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + deletedRecordColumns

	deletedAt := d.DeletedAt
	if deletedAt.IsZero() {
		deletedAt = time.Now()
	}
	created, err := scanDeletedRecord(q.QueryRow(ctx, query,
		d.CompanyID, string(d.Kind), d.RecordID, d.RecordData, d.DeletedBy, deletedAt))
	if err != nil {
		return audit.DeletedRecord{}, fmt.Errorf("failed to create deleted record: %w", err)
	}
	return created, nil
}

// GetByID implements audit.DeletedRecordRepository.
func (r *deletedRecordRepository) GetByID(ctx context.Context, companyID, id string) (audit.DeletedRecord, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + deletedRecordColumns + ` FROM deleted_records WHERE id = $1 AND company_id = $2`

	d, err := scanDeletedRecord(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return audit.DeletedRecord{}, audit.ErrDeletedRecordNotFound
		}
		return audit.DeletedRecord{}, fmt.Errorf("failed to get deleted record with id %s: %w", id, err)
	}
	return d, nil
}

// List implements audit.DeletedRecordRepository.
func (r *deletedRecordRepository) List(ctx context.Context, companyID string, kind *audit.Kind) ([]audit.DeletedRecord, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + deletedRecordColumns + `
		FROM deleted_records
		WHERE company_id = $1 AND ($2::text IS NULL OR kind = $2::text)
		ORDER BY deleted_at DESC`

	var k *string
	if kind != nil {
		v := string(*kind)
		k = &v
	}
	rows, err := q.Query(ctx, query, companyID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted records: %w", err)
	}
	defer rows.Close()

	var out []audit.DeletedRecord
	for rows.Next() {
		d, err := scanDeletedRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deleted record: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkRestored implements audit.DeletedRecordRepository.
func (r *deletedRecordRepository) MarkRestored(ctx context.Context, companyID, id string, restoredBy *string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, `
		UPDATE deleted_records SET is_restored = TRUE, restored_by = $3, restored_at = $4
		WHERE id = $1 AND company_id = $2 AND NOT is_restored`,
		id, companyID, restoredBy, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark record restored: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
