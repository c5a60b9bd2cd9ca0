// Package catalog holds the static HIPAA questionnaire: questions, their
// evidence policies and the scoring configuration used to weigh answers.
//
// A Catalog is immutable once loaded. Every required_if expression is parsed
// into a Condition at load time and never re-parsed during evaluation.
package catalog

import "fmt"

type Category string

const (
	CategoryAdministrative Category = "administrative"
	CategoryPhysical       Category = "physical"
	CategoryTechnical      Category = "technical"
	CategoryVendor         Category = "vendor"
	CategoryTraining       Category = "training"
	CategoryIncident       Category = "incident"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAdministrative,
	CategoryPhysical,
	CategoryTechnical,
	CategoryVendor,
	CategoryTraining,
	CategoryIncident,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// EvidenceType is a kind of proof accepted for a question.
type EvidenceType string

const (
	EvidenceDocument    EvidenceType = "document"
	EvidenceScreenshot  EvidenceType = "screenshot"
	EvidenceLink        EvidenceType = "link"
	EvidenceAttestation EvidenceType = "attestation"
	EvidenceLog         EvidenceType = "log"
	EvidenceVendorProof EvidenceType = "vendor_proof"
	EvidenceNarrative   EvidenceType = "structured_narrative"
)

var EvidenceTypes = []EvidenceType{
	EvidenceDocument,
	EvidenceScreenshot,
	EvidenceLink,
	EvidenceAttestation,
	EvidenceLog,
	EvidenceVendorProof,
	EvidenceNarrative,
}

func (t EvidenceType) Valid() bool {
	for _, k := range EvidenceTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Question is one entry of the questionnaire.
type Question struct {
	ID       string         `yaml:"id" json:"question_id"`
	Sequence int            `yaml:"sequence" json:"sequence"`
	Category Category       `yaml:"category" json:"category"`
	Severity int            `yaml:"severity" json:"severity"`
	Text     string         `yaml:"text" json:"text"`
	Citation string         `yaml:"citation" json:"citation"`
	NIST     string         `yaml:"nist" json:"nist,omitempty"`
	Options  []string       `yaml:"options" json:"options"`
	Evidence EvidencePolicy `yaml:"evidence" json:"evidence"`
}

// EvidencePolicy describes what proof a question may need. Only Required,
// Types and the parsed Condition drive the requirement decision; the rest is
// compliance metadata copied onto persisted evidence records.
type EvidencePolicy struct {
	Required           bool           `yaml:"required" json:"required"`
	Types              []EvidenceType `yaml:"types" json:"types"`
	RequiredIf         string         `yaml:"required_if" json:"required_if,omitempty"`
	RetentionPeriod    string         `yaml:"retention_period" json:"retention_period,omitempty"`
	LegalWeight        string         `yaml:"legal_weight" json:"legal_weight,omitempty"`
	AuditTrailRequired bool           `yaml:"audit_trail_required" json:"audit_trail_required"`
	TimestampRequired  bool           `yaml:"timestamp_required" json:"timestamp_required"`
	SignerRequired     bool           `yaml:"signer_required" json:"signer_required"`

	Condition Condition `yaml:"-" json:"-"`
}

// Accepts reports whether t is one of the acceptable evidence types.
func (p EvidencePolicy) Accepts(t EvidenceType) bool {
	for _, k := range p.Types {
		if k == t {
			return true
		}
	}
	return false
}

// HasOption reports whether answer is one of the question's choices.
func (q Question) HasOption(answer string) bool {
	for _, o := range q.Options {
		if o == answer {
			return true
		}
	}
	return false
}

func (q Question) String() string {
	return fmt.Sprintf("%s (#%d, %s)", q.ID, q.Sequence, q.Category)
}
