package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/scoring"
	"hipaa-compliance/internal/store"
)

// OrgInput is the organization profile collected during onboarding.
type OrgInput struct {
	Name            string         `json:"name"`
	OrgType         models.OrgType `json:"org_type"`
	Industry        string         `json:"industry"`
	EmployeeCount   int            `json:"employee_count"`
	ContactEmail    string         `json:"contact_email"`
	ContactPhone    string         `json:"contact_phone"`
	PrivacyOfficer  string         `json:"privacy_officer"`
	SecurityOfficer string         `json:"security_officer"`
	Notes           string         `json:"notes"`
}

func (in OrgInput) validate() error {
	if len(strings.TrimSpace(in.Name)) < 2 {
		return invalid("organization.name", "must be at least 2 characters")
	}
	switch in.OrgType {
	case "", models.OrgCoveredEntity, models.OrgBusinessAssociate, models.OrgHybrid:
	default:
		return invalid("organization.org_type", "unknown type %q", in.OrgType)
	}
	if in.EmployeeCount < 0 {
		return invalid("organization.employee_count", "must not be negative")
	}
	return nil
}

func (in OrgInput) apply(org *models.Organization) {
	org.Name = strings.TrimSpace(in.Name)
	org.OrgType = in.OrgType
	org.Industry = in.Industry
	org.EmployeeCount = in.EmployeeCount
	org.ContactEmail = in.ContactEmail
	org.ContactPhone = in.ContactPhone
	org.PrivacyOfficer = in.PrivacyOfficer
	org.SecurityOfficer = in.SecurityOfficer
	org.Notes = in.Notes
}

// AssessmentView is an assessment with its freshly computed score.
type AssessmentView struct {
	Organization *models.Organization   `json:"organization"`
	Assessment   *models.RiskAssessment `json:"assessment"`
	Result       scoring.Result         `json:"result"`
}

func (s *Service) validateAnswers(answers map[string]string) error {
	if err := s.catalog.ValidateAnswers(answers); err != nil {
		return &ValidationError{Field: "answers", Msg: err.Error()}
	}
	return nil
}

// applyAnswers overwrites the answers and every derived field.
func (s *Service) applyAnswers(a *models.RiskAssessment, answers map[string]string) scoring.Result {
	copied := make(map[string]string, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	res := s.engine.Score(copied)
	now := s.now()

	a.Answers = datatypes.NewJSONType(copied)
	a.TotalRiskScore = res.TotalRiskScore
	a.MaxPossibleScore = res.MaxPossibleScore
	a.RiskPercentage = res.RiskPercentage
	a.RiskLevel = string(res.RiskLevel)
	a.CatalogVersion = s.catalog.Version()
	a.CompletedAt = &now
	return res
}

// CompleteOnboarding creates the organization if needed and creates or
// fully overwrites its assessment.
func (s *Service) CompleteOnboarding(ctx context.Context, actor Actor, in OrgInput, answers map[string]string) (*AssessmentView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.validateAnswers(answers); err != nil {
		return nil, err
	}

	org, err := s.store.OrganizationByOwner(ctx, actor.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		org = &models.Organization{OwnerID: actor.UserID}
		in.apply(org)
		if err := s.store.CreateOrganization(ctx, org); err != nil {
			return nil, err
		}
		s.audit(ctx, actor, org.ID, "organization", org.ID, "create", org.Name)
	case err != nil:
		return nil, err
	default:
		in.apply(org)
		if err := s.store.UpdateOrganization(ctx, org); err != nil {
			return nil, err
		}
	}

	a, err := s.store.Assessment(ctx, org.ID)
	if errors.Is(err, store.ErrNotFound) {
		a = &models.RiskAssessment{OrganizationID: org.ID}
	} else if err != nil {
		return nil, err
	}
	res := s.applyAnswers(a, answers)
	if err := s.store.SaveAssessment(ctx, a); err != nil {
		return nil, err
	}

	s.metrics.AssessmentScored(a.RiskLevel, a.RiskPercentage)
	s.audit(ctx, actor, org.ID, "assessment", a.ID, "onboarding",
		fmt.Sprintf("%d answers, risk %.1f%% (%s)", len(answers), a.RiskPercentage, a.RiskLevel))
	s.log.InfoContext(ctx, "onboarding completed",
		"organization_id", org.ID, "risk_level", a.RiskLevel, "risk_percentage", a.RiskPercentage)

	return &AssessmentView{Organization: org, Assessment: a, Result: res}, nil
}

// Assessment returns the stored assessment with a recomputed score.
func (s *Service) Assessment(ctx context.Context, actor Actor) (*AssessmentView, error) {
	org, a, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &AssessmentView{Organization: org, Assessment: a, Result: s.engine.Score(a.AnswerMap())}, nil
}

// SubmitAnswers replaces the whole answer set. Questions left out are
// unanswered afterwards.
func (s *Service) SubmitAnswers(ctx context.Context, actor Actor, answers map[string]string) (*AssessmentView, error) {
	if err := s.validateAnswers(answers); err != nil {
		return nil, err
	}
	org, a, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}

	res := s.applyAnswers(a, answers)
	if err := s.store.SaveAssessment(ctx, a); err != nil {
		return nil, mapStoreErr(err)
	}

	s.metrics.AssessmentScored(a.RiskLevel, a.RiskPercentage)
	s.audit(ctx, actor, org.ID, "assessment", a.ID, "update",
		fmt.Sprintf("%d answers, risk %.1f%% (%s)", len(answers), a.RiskPercentage, a.RiskLevel))
	return &AssessmentView{Organization: org, Assessment: a, Result: res}, nil
}

// RetakeAssessment discards the assessment, its evidence records and the
// organization's action items, and starts over with an empty assessment.
// Uploaded files are removed from object storage once the transaction has
// committed.
func (s *Service) RetakeAssessment(ctx context.Context, actor Actor) (*AssessmentView, error) {
	org, old, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}

	recs, err := s.store.EvidenceRecords(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, rec := range recs {
		for _, it := range rec.EvidenceData.Data().Items() {
			if it.Path != "" {
				paths = append(paths, it.Path)
			}
		}
	}

	fresh := &models.RiskAssessment{}
	res := s.applyAnswers(fresh, nil)
	fresh.CompletedAt = nil
	if err := s.store.RetakeAssessment(ctx, org.ID, fresh); err != nil {
		return nil, mapStoreErr(err)
	}

	for _, p := range paths {
		if s.objects == nil {
			break
		}
		if err := s.objects.Delete(ctx, p); err != nil {
			s.log.WarnContext(ctx, "failed to delete evidence file after retake", "path", p, "error", err)
		}
	}

	s.metrics.AssessmentRetaken()
	s.audit(ctx, actor, org.ID, "assessment", old.ID, "retake",
		fmt.Sprintf("removed %d evidence records and %d files", len(recs), len(paths)))
	s.log.InfoContext(ctx, "assessment retaken", "organization_id", org.ID, "evidence_records", len(recs))

	return &AssessmentView{Organization: org, Assessment: fresh, Result: res}, nil
}
