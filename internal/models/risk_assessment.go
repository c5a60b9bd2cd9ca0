package models

import (
	"time"

	"gorm.io/datatypes"
)

// RiskAssessment holds the latest questionnaire answers of an organization
// and the score derived from them. Answers are replaced as a whole, never
// merged.
type RiskAssessment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	OrganizationID uint      `gorm:"uniqueIndex;not null" json:"organization_id"`

	Answers          datatypes.JSONType[map[string]string] `gorm:"type:jsonb" json:"answers"`
	TotalRiskScore   float64                               `json:"total_risk_score"`
	MaxPossibleScore int                                   `json:"max_possible_score"`
	RiskPercentage   float64                               `json:"risk_percentage"`
	RiskLevel        string                                `gorm:"type:varchar(20)" json:"risk_level"`
	CatalogVersion   string                                `gorm:"size:50" json:"catalog_version"`
	CompletedAt      *time.Time                            `json:"completed_at"`
}

// AnswerMap returns the stored answers, never nil.
func (a *RiskAssessment) AnswerMap() map[string]string {
	m := a.Answers.Data()
	if m == nil {
		return map[string]string{}
	}
	return m
}
