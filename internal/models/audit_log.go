package models

import "time"

// AuditLog is the application-wide journal of changes made through the API.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID uint `json:"user_id"`
	User   User `json:"-"`

	OrganizationID uint   `gorm:"index" json:"organization_id"`
	Entity         string `gorm:"size:50;not null" json:"entity"` // "assessment", "evidence", "vendor", ...
	EntityID       uint   `json:"entity_id"`
	Action         string `gorm:"size:50;not null" json:"action"` // "create", "retake", "export", ...
	Details        string `gorm:"type:text" json:"details"`
	IPAddress      string `gorm:"size:45" json:"ip_address"`
}
