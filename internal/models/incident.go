package models

import (
	"time"

	"gorm.io/gorm"
)

type IncidentSeverity string
type IncidentStatus string

const (
	SeverityLow    IncidentSeverity = "low"
	SeverityMedium IncidentSeverity = "medium"
	SeverityHigh   IncidentSeverity = "high"

	IncidentOpen          IncidentStatus = "open"
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentResolved      IncidentStatus = "resolved"
	IncidentClosed        IncidentStatus = "closed"
)

// Incident is a security incident or potential breach under investigation.
type Incident struct {
	gorm.Model
	OrganizationID uint `gorm:"index;not null" json:"organization_id"`

	Title               string           `gorm:"size:255;not null" json:"title"`
	Description         string           `gorm:"type:text" json:"description"`
	Severity            IncidentSeverity `gorm:"type:varchar(20);not null" json:"severity"`
	Status              IncidentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	DateDiscovered      time.Time        `gorm:"not null" json:"date_discovered"`
	IndividualsAffected int              `json:"individuals_affected"`
	IsBreach            bool             `json:"is_breach"`
	NotifiedHHSAt       *time.Time       `json:"notified_hhs_at"`
	NotifiedPatientsAt  *time.Time       `json:"notified_patients_at"`
	ResolvedAt          *time.Time       `json:"resolved_at"`
}

// IsOpen reports whether the incident still needs work.
func (i Incident) IsOpen() bool {
	return i.Status == IncidentOpen || i.Status == IncidentInvestigating
}
