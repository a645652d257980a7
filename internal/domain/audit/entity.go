package audit

import (
	"encoding/json"
	"time"
)

// Action is the row-level change an audit entry records. State transitions
// such as approvals are updates; the verb goes in Description.
type Action string

const (
	ActionInsert  Action = "insert"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

// AllActions is the closed set accepted by audit_logs.action.
func AllActions() []Action {
	return []Action{ActionInsert, ActionUpdate, ActionDelete, ActionRestore}
}

func (a Action) Valid() bool {
	switch a {
	case ActionInsert, ActionUpdate, ActionDelete, ActionRestore:
		return true
	}
	return false
}

// Entry is one append-only audit row.
type Entry struct {
	ID          string
	CompanyID   string
	ActorID     *string
	TableName   string
	RecordID    string
	Action      Action
	OldData     json.RawMessage
	NewData     json.RawMessage
	Description string
	CreatedAt   time.Time
}

// Kind names an entity the deleted-record registry knows how to remove and restore.
type Kind string

const (
	KindEmployee          Kind = "employee"
	KindAttendanceLog     Kind = "attendance_log"
	KindLeaveRequest      Kind = "leave_request"
	KindSalaryAdjustment  Kind = "salary_adjustment"
	KindPendingAttendance Kind = "pending_attendance"
)

// Table returns the source table a kind lives in.
func (k Kind) Table() string {
	switch k {
	case KindEmployee:
		return "employees"
	case KindAttendanceLog:
		return "attendance_logs"
	case KindLeaveRequest:
		return "leave_requests"
	case KindSalaryAdjustment:
		return "salary_adjustments"
	case KindPendingAttendance:
		return "pending_attendances"
	}
	return ""
}

func AllKinds() []Kind {
	return []Kind{KindEmployee, KindAttendanceLog, KindLeaveRequest, KindSalaryAdjustment, KindPendingAttendance}
}

// DeletedRecord keeps the full row snapshot taken right before deletion.
type DeletedRecord struct {
	ID         string
	CompanyID  string
	Kind       Kind
	RecordID   string
	RecordData json.RawMessage
	DeletedBy  *string
	DeletedAt  time.Time
	IsRestored bool
	RestoredBy *string
	RestoredAt *time.Time
}

// JSON marshals v for OldData/NewData, nil when v is nil or unmarshalable.
func JSON(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
