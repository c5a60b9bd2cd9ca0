package models

import "time"

type ActionPriority string
type ActionStatus string

const (
	PriorityCritical ActionPriority = "critical"
	PriorityHigh     ActionPriority = "high"
	PriorityMedium   ActionPriority = "medium"
	PriorityLow      ActionPriority = "low"

	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
	ActionDismissed  ActionStatus = "dismissed"
)

// ActionItem is an advisory follow-up task. ItemKey is deterministic for the
// condition that raised it, so regeneration can skip items still pending.
type ActionItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	OrganizationID uint      `gorm:"index:idx_action_org_key;not null" json:"organization_id"`
	ItemKey        string    `gorm:"index:idx_action_org_key;size:128;not null" json:"item_key"`

	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    ActionPriority `gorm:"type:varchar(20);not null" json:"priority"`
	Category    string         `gorm:"size:50" json:"category"`
	Status      ActionStatus   `gorm:"type:varchar(20);not null" json:"status"`
	Source      string         `gorm:"size:20" json:"source"` // vendor, incident
	SourceID    uint           `json:"source_id"`
	DueDate     *time.Time     `json:"due_date"`
	CompletedAt *time.Time     `json:"completed_at"`
}

func ValidActionStatus(s ActionStatus) bool {
	switch s {
	case ActionPending, ActionInProgress, ActionCompleted, ActionDismissed:
		return true
	}
	return false
}
