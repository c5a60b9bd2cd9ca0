package models

import "gorm.io/gorm"

type OrgType string

const (
	OrgCoveredEntity     OrgType = "covered_entity"
	OrgBusinessAssociate OrgType = "business_associate"
	OrgHybrid            OrgType = "hybrid"
)

// Organization is the compliance subject. Each owner has at most one.
type Organization struct {
	gorm.Model
	OwnerID uint `gorm:"uniqueIndex;not null" json:"owner_id"`

	Name            string  `gorm:"size:255;not null" json:"name"`
	OrgType         OrgType `gorm:"type:varchar(50)" json:"org_type"`
	Industry        string  `gorm:"size:100" json:"industry"`
	EmployeeCount   int     `json:"employee_count"`
	ContactEmail    string  `gorm:"size:255" json:"contact_email"`
	ContactPhone    string  `gorm:"size:50" json:"contact_phone"`
	PrivacyOfficer  string  `gorm:"size:255" json:"privacy_officer"`
	SecurityOfficer string  `gorm:"size:255" json:"security_officer"`
	Notes           string  `gorm:"type:text" json:"notes"`
}
