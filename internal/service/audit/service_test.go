package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeAuditRepo struct {
	entries   []audit.Entry
	appendErr []error
	lastLimit int
}

func (f *fakeAuditRepo) Append(ctx context.Context, e audit.Entry) error {
	if len(f.appendErr) > 0 {
		err := f.appendErr[0]
		f.appendErr = f.appendErr[1:]
		if err != nil {
			return err
		}
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, companyID string, filter audit.ListAuditFilter) ([]audit.Entry, error) {
	f.lastLimit = filter.Limit
	return f.entries, nil
}

type fakeDeletedRepo struct {
	records map[string]audit.DeletedRecord
}

func (f *fakeDeletedRepo) Create(ctx context.Context, r audit.DeletedRecord) (audit.DeletedRecord, error) {
	r.ID = "del-" + r.RecordID
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeDeletedRepo) GetByID(ctx context.Context, companyID, id string) (audit.DeletedRecord, error) {
	r, ok := f.records[id]
	if !ok || r.CompanyID != companyID {
		return audit.DeletedRecord{}, audit.ErrDeletedRecordNotFound
	}
	return r, nil
}

func (f *fakeDeletedRepo) List(ctx context.Context, companyID string, kind *audit.Kind) ([]audit.DeletedRecord, error) {
	var out []audit.DeletedRecord
	for _, r := range f.records {
		if kind == nil || r.Kind == *kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDeletedRepo) MarkRestored(ctx context.Context, companyID, id string, by *string, at time.Time) (bool, error) {
	r := f.records[id]
	if r.IsRestored {
		return false, nil
	}
	r.IsRestored = true
	f.records[id] = r
	return true, nil
}

// memStore keeps rows as JSON keyed by id.
type memStore struct {
	rows      map[string]json.RawMessage
	removeErr error
}

func (m *memStore) Snapshot(ctx context.Context, companyID, id string) (json.RawMessage, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, audit.ErrRecordNotFound
	}
	return row, nil
}

func (m *memStore) Remove(ctx context.Context, companyID, id string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) Restore(ctx context.Context, companyID string, data json.RawMessage) error {
	var row struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	if _, exists := m.rows[row.ID]; exists {
		return audit.ErrRecordExists
	}
	m.rows[row.ID] = data
	return nil
}

type fixture struct {
	svc     *RecordServiceImpl
	tx      *fakeTx
	audits  *fakeAuditRepo
	deleted *fakeDeletedRepo
	store   *memStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		tx:      &fakeTx{},
		audits:  &fakeAuditRepo{},
		deleted: &fakeDeletedRepo{records: map[string]audit.DeletedRecord{}},
		store:   &memStore{rows: map[string]json.RawMessage{"adj-1": json.RawMessage(`{"id":"adj-1","bonus":"100"}`)}},
	}
	reg := Registry{}
	for _, k := range audit.AllKinds() {
		reg[k] = &memStore{rows: map[string]json.RawMessage{}}
	}
	reg[audit.KindSalaryAdjustment] = f.store

	svc, err := NewRecordService(f.tx, f.deleted, f.audits, NewRecorder(f.audits), reg)
	require.NoError(t, err)
	f.svc = svc
	return f
}

var admin = user.Caller{UserID: "u-1", EmployeeID: "emp-admin", CompanyID: "company-1", Role: user.RoleAdmin}

func TestNewRecordService_RequiresEveryKind(t *testing.T) {
	_, err := NewRecordService(&fakeTx{}, nil, nil, nil, Registry{audit.KindEmployee: &memStore{}})
	assert.Error(t, err)
}

func TestDeleteThenRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, admin, audit.KindSalaryAdjustment, "adj-1"))
	assert.NotContains(t, f.store.rows, "adj-1")
	assert.Equal(t, 1, f.tx.calls)

	rec := f.deleted.records["del-adj-1"]
	assert.JSONEq(t, `{"id":"adj-1","bonus":"100"}`, string(rec.RecordData))
	assert.Equal(t, "emp-admin", *rec.DeletedBy)

	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, audit.ActionDelete, f.audits.entries[0].Action)
	assert.Equal(t, "salary_adjustments", f.audits.entries[0].TableName)

	resp, err := f.svc.Restore(ctx, admin, "del-adj-1")
	require.NoError(t, err)
	assert.True(t, resp.IsRestored)
	assert.Contains(t, f.store.rows, "adj-1")
	assert.Equal(t, audit.ActionRestore, f.audits.entries[1].Action)

	_, err = f.svc.Restore(ctx, admin, "del-adj-1")
	assert.ErrorIs(t, err, audit.ErrAlreadyRestored)
}

func TestDelete_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Delete(ctx, user.Caller{CompanyID: "company-1", Role: user.RoleManager}, audit.KindSalaryAdjustment, "adj-1")
	assert.ErrorIs(t, err, user.ErrAdminAccessRequired)

	err = f.svc.Delete(ctx, admin, audit.Kind("invoices"), "x")
	assert.ErrorIs(t, err, audit.ErrUnknownKind)

	err = f.svc.Delete(ctx, admin, audit.KindSalaryAdjustment, "missing")
	assert.ErrorIs(t, err, audit.ErrRecordNotFound)
	assert.Empty(t, f.audits.entries, "failed deletes are not audited")
}

func TestDelete_RemoveFailureIsReturned(t *testing.T) {
	f := newFixture(t)
	f.store.removeErr = errors.New("fk violation")

	err := f.svc.Delete(context.Background(), admin, audit.KindSalaryAdjustment, "adj-1")
	assert.EqualError(t, err, "fk violation")
	assert.Empty(t, f.audits.entries)
}

func TestRecorder_RetriesOnceThenGivesUp(t *testing.T) {
	repo := &fakeAuditRepo{appendErr: []error{errors.New("conn reset")}}
	NewRecorder(repo).Record(context.Background(), audit.Entry{TableName: "employees", RecordID: "e1", Action: audit.ActionUpdate})
	require.Len(t, repo.entries, 1)
	assert.False(t, repo.entries[0].CreatedAt.IsZero())

	repo = &fakeAuditRepo{appendErr: []error{errors.New("down"), errors.New("still down")}}
	assert.NotPanics(t, func() {
		NewRecorder(repo).Record(context.Background(), audit.Entry{TableName: "employees", RecordID: "e1", Action: audit.ActionUpdate})
	})
	assert.Empty(t, repo.entries)
}

func TestRecorder_DropsUnknownAction(t *testing.T) {
	repo := &fakeAuditRepo{}
	NewRecorder(repo).Record(context.Background(), audit.Entry{TableName: "leave_requests", RecordID: "l1", Action: "approve"})
	assert.Empty(t, repo.entries)
}

func TestListAudit_ClampsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListAudit(ctx, admin, audit.ListAuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, defaultAuditLimit, f.audits.lastLimit)

	_, err = f.svc.ListAudit(ctx, admin, audit.ListAuditFilter{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, maxAuditLimit, f.audits.lastLimit)
}
