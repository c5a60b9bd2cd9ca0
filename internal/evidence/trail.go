package evidence

import "time"

type Action string

const (
	ActionRecordCreated Action = "record_created"
	ActionUploaded      Action = "evidence_uploaded"
	ActionAdded         Action = "evidence_added"
	ActionRemoved       Action = "evidence_removed"
)

// AuditEntry records who changed an evidence record, when and from where.
type AuditEntry struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	UserID    uint      `json:"user_id"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	ItemID    string    `json:"item_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Actor identifies the request that performs an evidence change.
type Actor struct {
	UserID    uint
	IP        string
	UserAgent string
}

// Entry builds an audit entry for the actor.
func (a Actor) Entry(action Action, at time.Time, itemID, detail string) AuditEntry {
	return AuditEntry{
		Action:    action,
		Timestamp: at.UTC(),
		UserID:    a.UserID,
		IP:        a.IP,
		UserAgent: a.UserAgent,
		ItemID:    itemID,
		Detail:    detail,
	}
}

// Append returns the trail with e added at the end. Existing entries are
// never touched and the returned slice never shares its tail with t.
func Append(t []AuditEntry, e AuditEntry) []AuditEntry {
	out := make([]AuditEntry, len(t), len(t)+1)
	copy(out, t)
	return append(out, e)
}
