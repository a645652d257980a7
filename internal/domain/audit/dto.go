package audit

import (
	"encoding/json"
	"time"
)

type ListAuditFilter struct {
	TableName *string
	RecordID  *string
	Limit     int
}

type EntryResponse struct {
	ID          string          `json:"id"`
	ActorID     *string         `json:"actor_id,omitempty"`
	TableName   string          `json:"table"`
	RecordID    string          `json:"record_id"`
	Action      string          `json:"action"`
	OldData     json.RawMessage `json:"old_data,omitempty"`
	NewData     json.RawMessage `json:"new_data,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func ToEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		ActorID:     e.ActorID,
		TableName:   e.TableName,
		RecordID:    e.RecordID,
		Action:      string(e.Action),
		OldData:     e.OldData,
		NewData:     e.NewData,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

type DeletedRecordResponse struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	RecordID   string          `json:"record_id"`
	RecordData json.RawMessage `json:"record_data"`
	DeletedBy  *string         `json:"deleted_by,omitempty"`
	DeletedAt  time.Time       `json:"deleted_at"`
	IsRestored bool            `json:"is_restored"`
	RestoredBy *string         `json:"restored_by,omitempty"`
	RestoredAt *time.Time      `json:"restored_at,omitempty"`
}

func ToDeletedRecordResponse(r DeletedRecord) DeletedRecordResponse {
	return DeletedRecordResponse{
		ID:         r.ID,
		Kind:       string(r.Kind),
		RecordID:   r.RecordID,
		RecordData: r.RecordData,
		DeletedBy:  r.DeletedBy,
		DeletedAt:  r.DeletedAt,
		IsRestored: r.IsRestored,
		RestoredBy: r.RestoredBy,
		RestoredAt: r.RestoredAt,
	}
}
