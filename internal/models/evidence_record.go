package models

import (
	"time"

	"gorm.io/datatypes"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/evidence"
)

// EvidenceRecord is the proof for one question of one organization. It is
// created on the first evidence change for that question. The audit trail is
// append-only.
type EvidenceRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	OrganizationID   uint      `gorm:"uniqueIndex:idx_evidence_org_question;not null" json:"organization_id"`
	RiskAssessmentID uint      `gorm:"index;not null" json:"risk_assessment_id"`
	QuestionID       string    `gorm:"uniqueIndex:idx_evidence_org_question;size:32;not null" json:"question_id"`
	QuestionSequence int       `json:"question_sequence"`

	EvidenceRequired bool                                      `json:"evidence_required"`
	EvidenceTypes    datatypes.JSONSlice[catalog.EvidenceType] `gorm:"type:jsonb" json:"evidence_type"`
	EvidenceProvided bool                                      `json:"evidence_provided"`
	EvidenceData     datatypes.JSONType[evidence.Data]         `gorm:"type:jsonb" json:"evidence_data"`
	AuditTrail       datatypes.JSONSlice[evidence.AuditEntry]  `gorm:"type:jsonb" json:"audit_trail"`

	RetentionPeriod    string `gorm:"size:50" json:"retention_period"`
	LegalWeight        string `gorm:"size:20" json:"legal_weight"`
	AuditTrailRequired bool   `json:"audit_trail_required"`
	TimestampRequired  bool   `json:"timestamp_required"`
	SignerRequired     bool   `json:"signer_required"`
}
