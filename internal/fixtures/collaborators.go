package fixtures

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

// InlineTx runs transactional closures directly, counting them.
type InlineTx struct {
	Calls int
}

func (t *InlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

// Recorder captures audit entries.
type Recorder struct {
	mu      sync.Mutex
	Entries []audit.Entry
}

func (r *Recorder) Record(ctx context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
}

// Actions lists the recorded actions in order.
func (r *Recorder) Actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Action)
	}
	return out
}

// Notifier captures notifications.
type Notifier struct {
	mu   sync.Mutex
	Sent []notification.CreateNotificationRequest
}

func (n *Notifier) Notify(ctx context.Context, req notification.CreateNotificationRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, req)
}

// To returns the notifications addressed to an employee.
func (n *Notifier) To(employeeID string) []notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification.CreateNotificationRequest
	for _, r := range n.Sent {
		if r.RecipientID == employeeID {
			out = append(out, r)
		}
	}
	return out
}

// Policies serves a fixed policy per company, defaults otherwise.
type Policies map[string]policy.CompanyPolicy

func (p Policies) Get(ctx context.Context, companyID string) (policy.CompanyPolicy, error) {
	if cp, ok := p[companyID]; ok {
		return cp, nil
	}
	return DefaultCompanyPolicy(companyID), nil
}

func (p Policies) Update(ctx context.Context, caller user.Caller, req policy.UpdatePolicyRequest) (policy.CompanyPolicy, error) {
	cur, _ := p.Get(ctx, caller.CompanyID)
	next := req.ApplyTo(cur)
	p[caller.CompanyID] = next
	return next, nil
}

// Deleter records registry deletions instead of performing them.
type Deleter struct {
	Deleted []string
	Err     error
}

func (d *Deleter) DeleteRecord(ctx context.Context, actor user.Caller, kind audit.Kind, id string) error {
	if d.Err != nil {
		return d.Err
	}
	d.Deleted = append(d.Deleted, string(kind)+":"+id)
	return nil
}
