package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/scoring"
)

func TestCompleteOnboarding_CreatesOrganizationAndScores(t *testing.T) {
	h := newHarness(t)

	v := h.onboard(t, map[string]string{"ADM-001": "no", "TEC-001": "yes", "TRN-001": "partially compliant"})

	assert.Equal(t, "Acme Clinic", v.Organization.Name)
	assert.Equal(t, uint(42), v.Organization.OwnerID)
	assert.InDelta(t, 6.0, v.Assessment.TotalRiskScore, 1e-9)
	assert.Equal(t, 10, v.Assessment.MaxPossibleScore)
	assert.Equal(t, 60.0, v.Assessment.RiskPercentage)
	assert.Equal(t, string(scoring.LevelHigh), v.Assessment.RiskLevel)
	assert.Equal(t, "test-1", v.Assessment.CatalogVersion)
	require.NotNil(t, v.Assessment.CompletedAt)
	assert.Equal(t, []string{"organization:create", "assessment:onboarding"}, h.store.AuditActions())
}

func TestCompleteOnboarding_OverwritesAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.onboard(t, map[string]string{"ADM-001": "no", "TEC-001": "no"})
	second, err := h.svc.CompleteOnboarding(ctx, h.actor, OrgInput{Name: "Acme Health"}, map[string]string{"TRN-001": "yes"})
	require.NoError(t, err)

	assert.Equal(t, first.Organization.ID, second.Organization.ID)
	assert.Equal(t, first.Assessment.ID, second.Assessment.ID)
	assert.Equal(t, map[string]string{"TRN-001": "yes"}, second.Assessment.AnswerMap())
	assert.Zero(t, second.Assessment.TotalRiskScore)
	assert.Equal(t, "Acme Health", second.Organization.Name)
	assert.Equal(t, 1, h.store.OrganizationCount())
}

func TestCompleteOnboarding_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CompleteOnboarding(ctx, h.actor, OrgInput{Name: "A"}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.CompleteOnboarding(ctx, h.actor, OrgInput{Name: "Acme"}, map[string]string{"NOPE": "yes"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.CompleteOnboarding(ctx, h.actor, OrgInput{Name: "Acme"}, map[string]string{"ADM-001": "maybe"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, h.store.OrganizationCount())
}

func TestAssessment_RequiresOnboarding(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Assessment(context.Background(), h.actor)
	assert.ErrorIs(t, err, ErrNoOrganization)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitAnswers_ReplacesWholeSet(t *testing.T) {
	h := newHarness(t)
	h.onboard(t, map[string]string{"ADM-001": "no", "TEC-001": "no"})

	v, err := h.svc.SubmitAnswers(context.Background(), h.actor, map[string]string{"ADM-001": "yes"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"ADM-001": "yes"}, v.Assessment.AnswerMap())
	assert.Equal(t, 1, v.Result.Answered)
	assert.Equal(t, string(scoring.LevelLow), v.Assessment.RiskLevel)
}

func TestRetakeAssessment_ClearsEvidenceAndActionItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.onboard(t, map[string]string{"ADM-001": "yes", "TEC-001": "yes"})

	_, err := h.svc.UploadEvidence(ctx, h.actor, "ADM-001", upload("policy.pdf", "%PDF"))
	require.NoError(t, err)
	_, err = h.svc.CreateVendor(ctx, h.actor, VendorInput{Name: "Cloud EHR", HasPHIAccess: true})
	require.NoError(t, err)
	created, err := h.svc.GenerateActionItems(ctx, h.actor)
	require.NoError(t, err)
	require.NotEmpty(t, created)
	require.Equal(t, 1, h.objects.len())

	v, err := h.svc.RetakeAssessment(ctx, h.actor)
	require.NoError(t, err)

	assert.Empty(t, v.Assessment.AnswerMap())
	assert.Nil(t, v.Assessment.CompletedAt)
	assert.Zero(t, v.Result.TotalRiskScore)

	recs, err := h.svc.EvidenceRecords(ctx, h.actor)
	require.NoError(t, err)
	assert.Empty(t, recs)

	items, err := h.svc.ListActionItems(ctx, h.actor, "")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, h.objects.len())

	vendors, err := h.svc.ListVendors(ctx, h.actor)
	require.NoError(t, err)
	assert.Len(t, vendors, 1, "vendors survive a retake")
}

func TestRetakeAssessment_RequiresOnboarding(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.RetakeAssessment(context.Background(), h.actor)
	assert.ErrorIs(t, err, ErrNoOrganization)
}

func TestPosture(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.onboard(t, map[string]string{"ADM-001": "yes", "TEC-001": "no", "TRN-001": "yes"})

	_, err := h.svc.UploadEvidence(ctx, h.actor, "ADM-001", upload("analysis.pdf", "risk"))
	require.NoError(t, err)
	_, err = h.svc.CreateVendor(ctx, h.actor, VendorInput{Name: "Billing Co"})
	require.NoError(t, err)
	_, err = h.svc.CreateIncident(ctx, h.actor, IncidentInput{Title: "Lost laptop", Severity: models.SeverityMedium})
	require.NoError(t, err)

	p, err := h.svc.Posture(ctx, h.actor)
	require.NoError(t, err)

	assert.Equal(t, 3, p.QuestionsTotal)
	assert.Equal(t, 30.0, p.Score.RiskPercentage)
	assert.Equal(t, EvidenceProgress{Required: 2, Provided: 1, Items: 1, CompletionRate: "50.0"}, p.Evidence)
	assert.Equal(t, 1, p.VendorsWithoutBAA)
	assert.Equal(t, 1, p.OpenIncidents)
	assert.Zero(t, p.PendingActionItems)
	assert.Equal(t, "test-1", p.CatalogVersion)
}
