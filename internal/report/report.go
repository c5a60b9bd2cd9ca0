// Package report assembles the downloadable audit package from an
// organization's stored compliance data.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gowebpki/jcs"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/evidence"
	"hipaa-compliance/internal/models"
)

const FormatVersion = "1"

// ErrNotFound means there is nothing to export yet: the organization or its
// assessment does not exist. Callers send the user to onboarding.
var ErrNotFound = errors.New("organization or risk assessment not found")

// Input is everything Assemble reads. When Catalog is set, evidence
// requirements are resolved from the current answers and the summary counts
// every answered question. Without it the stored record flags are used.
type Input struct {
	Organization       *models.Organization
	Assessment         *models.RiskAssessment
	Evidence           []models.EvidenceRecord
	Vendors            []models.Vendor
	Incidents          []models.Incident
	PendingActionItems int
	Catalog            *catalog.Catalog
	GeneratedAt        time.Time
}

type AuditReport struct {
	FormatVersion  string               `json:"format_version"`
	GeneratedAt    time.Time            `json:"generated_at"`
	CatalogVersion string               `json:"catalog_version,omitempty"`
	Organization   OrganizationSnapshot `json:"organization"`
	RiskAssessment AssessmentSnapshot   `json:"risk_assessment"`
	Summary        Summary              `json:"summary"`
	Evidence       []EvidenceEntry      `json:"evidence"`
	Vendors        []VendorSummary      `json:"vendors"`
	Incidents      []IncidentSummary    `json:"incidents"`
	ContentHash    string               `json:"content_hash,omitempty"`
}

type OrganizationSnapshot struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	OrgType         string `json:"org_type,omitempty"`
	Industry        string `json:"industry,omitempty"`
	EmployeeCount   int    `json:"employee_count,omitempty"`
	ContactEmail    string `json:"contact_email,omitempty"`
	PrivacyOfficer  string `json:"privacy_officer,omitempty"`
	SecurityOfficer string `json:"security_officer,omitempty"`
}

type AssessmentSnapshot struct {
	ID               uint              `json:"id"`
	TotalRiskScore   float64           `json:"total_risk_score"`
	MaxPossibleScore int               `json:"max_possible_score"`
	RiskPercentage   float64           `json:"risk_percentage"`
	RiskLevel        string            `json:"risk_level"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	Answers          map[string]string `json:"answers"`
}

type Summary struct {
	QuestionsAnswered      int    `json:"questions_answered"`
	EvidenceRecords        int    `json:"evidence_records"`
	EvidenceRequired       int    `json:"evidence_required"`
	EvidenceProvided       int    `json:"evidence_provided"`
	EvidenceCompletionRate string `json:"evidence_completion_rate"`
	EvidenceItems          int    `json:"evidence_items"`
	OpenIncidents          int    `json:"open_incidents"`
	VendorsWithoutBAA      int    `json:"vendors_without_baa"`
	PendingActionItems     int    `json:"pending_action_items"`
}

type EvidenceEntry struct {
	QuestionID         string                 `json:"question_id"`
	QuestionSequence   int                    `json:"question_sequence"`
	QuestionText       string                 `json:"question_text,omitempty"`
	Category           catalog.Category       `json:"category,omitempty"`
	Citation           string                 `json:"citation,omitempty"`
	Answer             string                 `json:"answer,omitempty"`
	EvidenceRequired   bool                   `json:"evidence_required"`
	EvidenceTypes      []catalog.EvidenceType `json:"evidence_type"`
	EvidenceProvided   bool                   `json:"evidence_provided"`
	Items              []evidence.Item        `json:"items"`
	AuditTrail         []evidence.AuditEntry  `json:"audit_trail"`
	RetentionPeriod    string                 `json:"retention_period,omitempty"`
	LegalWeight        string                 `json:"legal_weight,omitempty"`
	AuditTrailRequired bool                   `json:"audit_trail_required"`
	TimestampRequired  bool                   `json:"timestamp_required"`
	SignerRequired     bool                   `json:"signer_required"`
}

type VendorSummary struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Service       string     `json:"service,omitempty"`
	HasPHIAccess  bool       `json:"has_phi_access"`
	BAASigned     bool       `json:"baa_signed"`
	BAAExpiration *time.Time `json:"baa_expiration,omitempty"`
}

type IncidentSummary struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Severity       string    `json:"severity"`
	Status         string    `json:"status"`
	DateDiscovered time.Time `json:"date_discovered"`
	IsBreach       bool      `json:"is_breach"`
}

// Assemble builds a self-contained snapshot. Nothing in the result aliases
// the input records.
func Assemble(in Input) (*AuditReport, error) {
	if in.Organization == nil || in.Assessment == nil {
		return nil, ErrNotFound
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}

	org, a := in.Organization, in.Assessment
	answers := a.AnswerMap()

	r := &AuditReport{
		FormatVersion: FormatVersion,
		GeneratedAt:   in.GeneratedAt.UTC(),
		Organization: OrganizationSnapshot{
			ID:              org.ID,
			Name:            org.Name,
			OrgType:         string(org.OrgType),
			Industry:        org.Industry,
			EmployeeCount:   org.EmployeeCount,
			ContactEmail:    org.ContactEmail,
			PrivacyOfficer:  org.PrivacyOfficer,
			SecurityOfficer: org.SecurityOfficer,
		},
		RiskAssessment: AssessmentSnapshot{
			ID:               a.ID,
			TotalRiskScore:   a.TotalRiskScore,
			MaxPossibleScore: a.MaxPossibleScore,
			RiskPercentage:   a.RiskPercentage,
			RiskLevel:        a.RiskLevel,
			CompletedAt:      copyTime(a.CompletedAt),
			Answers:          make(map[string]string, len(answers)),
		},
		Evidence:  make([]EvidenceEntry, 0, len(in.Evidence)),
		Vendors:   make([]VendorSummary, 0, len(in.Vendors)),
		Incidents: make([]IncidentSummary, 0, len(in.Incidents)),
	}
	for k, v := range answers {
		r.RiskAssessment.Answers[k] = v
	}
	if in.Catalog != nil {
		r.CatalogVersion = in.Catalog.Version()
	} else {
		r.CatalogVersion = a.CatalogVersion
	}

	s := &r.Summary
	s.QuestionsAnswered = len(answers)
	s.PendingActionItems = in.PendingActionItems

	provided := make(map[string]bool, len(in.Evidence))
	for _, rec := range in.Evidence {
		e := entryFor(rec, answers, in.Catalog)
		if e.EvidenceProvided {
			provided[e.QuestionID] = true
		}
		if in.Catalog == nil && e.EvidenceRequired {
			s.EvidenceRequired++
			if e.EvidenceProvided {
				s.EvidenceProvided++
			}
		}
		s.EvidenceItems += len(e.Items)
		r.Evidence = append(r.Evidence, e)
	}
	// With a catalog, every answered question counts, not only the ones
	// that already have a record.
	if in.Catalog != nil {
		for _, req := range evidence.Requirements(in.Catalog, answers) {
			if !req.Required {
				continue
			}
			s.EvidenceRequired++
			if provided[req.QuestionID] {
				s.EvidenceProvided++
			}
		}
	}
	s.EvidenceRecords = len(r.Evidence)
	s.EvidenceCompletionRate = CompletionRate(s.EvidenceProvided, s.EvidenceRequired)

	sort.SliceStable(r.Evidence, func(i, j int) bool {
		return r.Evidence[i].QuestionSequence < r.Evidence[j].QuestionSequence
	})

	for _, v := range in.Vendors {
		if !v.BAASigned {
			s.VendorsWithoutBAA++
		}
		r.Vendors = append(r.Vendors, VendorSummary{
			ID:            v.ID,
			Name:          v.Name,
			Service:       v.Service,
			HasPHIAccess:  v.HasPHIAccess,
			BAASigned:     v.BAASigned,
			BAAExpiration: copyTime(v.BAAExpiration),
		})
	}
	for _, inc := range in.Incidents {
		if inc.IsOpen() {
			s.OpenIncidents++
		}
		r.Incidents = append(r.Incidents, IncidentSummary{
			ID:             inc.ID,
			Title:          inc.Title,
			Severity:       string(inc.Severity),
			Status:         string(inc.Status),
			DateDiscovered: inc.DateDiscovered.UTC(),
			IsBreach:       inc.IsBreach,
		})
	}

	hash, err := Hash(r)
	if err != nil {
		return nil, err
	}
	r.ContentHash = hash
	return r, nil
}

func entryFor(rec models.EvidenceRecord, answers map[string]string, c *catalog.Catalog) EvidenceEntry {
	data := rec.EvidenceData.Data()
	e := EvidenceEntry{
		QuestionID:         rec.QuestionID,
		QuestionSequence:   rec.QuestionSequence,
		Answer:             answers[rec.QuestionID],
		EvidenceRequired:   rec.EvidenceRequired,
		EvidenceTypes:      append([]catalog.EvidenceType{}, rec.EvidenceTypes...),
		EvidenceProvided:   data.HasAny(),
		Items:              append([]evidence.Item{}, data.Items()...),
		AuditTrail:         append([]evidence.AuditEntry{}, rec.AuditTrail...),
		RetentionPeriod:    rec.RetentionPeriod,
		LegalWeight:        rec.LegalWeight,
		AuditTrailRequired: rec.AuditTrailRequired,
		TimestampRequired:  rec.TimestampRequired,
		SignerRequired:     rec.SignerRequired,
	}
	if c != nil {
		if q, ok := c.Question(rec.QuestionID); ok {
			answer, answered := answers[rec.QuestionID]
			e.EvidenceRequired = answered && evidence.IsEvidenceRequired(q, answer)
			e.QuestionText = q.Text
			e.Category = q.Category
			e.Citation = q.Citation
		}
	}
	return e
}

// CompletionRate is provided/required*100 with one decimal. A zero
// denominator yields "0.0".
func CompletionRate(provided, required int) string {
	if required <= 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(provided)/float64(required)*100)
}

// Hash is the sha256 of the canonical (RFC 8785) JSON form of the report
// with its content_hash field left out.
func Hash(r *AuditReport) (string, error) {
	clone := *r
	clone.ContentHash = ""
	raw, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize report: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// Filename is the attachment name offered for download.
func Filename(org *models.Organization, now time.Time) string {
	slug := "organization"
	if org != nil {
		if s := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(org.Name), "-"), "-"); s != "" {
			slug = s
		}
	}
	return fmt.Sprintf("hipaa-audit-%s-%s.json", slug, now.UTC().Format("2006-01-02"))
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := t.UTC()
	return &c
}
