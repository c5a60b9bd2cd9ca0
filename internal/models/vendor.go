package models

import (
	"time"

	"gorm.io/gorm"
)

// Vendor is a third party that may handle PHI and therefore needs a BAA.
type Vendor struct {
	gorm.Model
	OrganizationID uint `gorm:"index;not null" json:"organization_id"`

	Name          string     `gorm:"size:255;not null" json:"name"`
	Service       string     `gorm:"size:255" json:"service"`
	ContactEmail  string     `gorm:"size:255" json:"contact_email"`
	HasPHIAccess  bool       `json:"has_phi_access"`
	BAASigned     bool       `json:"baa_signed"`
	BAASignedAt   *time.Time `json:"baa_signed_at"`
	BAAExpiration *time.Time `json:"baa_expiration"`
	Notes         string     `gorm:"type:text" json:"notes"`
}
