package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hipaa-compliance/internal/catalog"
)

const testCatalog = `
version: "test"
defaults:
  options: ["yes", "partially compliant", "no", "not applicable", "unsure"]
scoring:
  default:
    "yes": 0
    "partially compliant": 0.5
    "no": 1
    "not applicable": 0
    "unsure": 0.75
  categories:
    incident:
      "unsure": 1
questions:
  - id: A1
    sequence: 1
    category: administrative
    severity: 4
    text: "a1"
    evidence: {required: false}
  - id: T1
    sequence: 2
    category: technical
    severity: 2
    text: "t1"
    evidence: {required: false}
  - id: I1
    sequence: 3
    category: incident
    severity: 4
    text: "i1"
    evidence: {required: false}
`

func loadCatalog(t *testing.T, doc string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(doc), catalog.Options{})
	require.NoError(t, err)
	return c
}

func TestScore_AllCompliant(t *testing.T) {
	e := NewEngine(loadCatalog(t, testCatalog))
	res := e.Score(map[string]string{"A1": "yes", "T1": "yes", "I1": "not applicable"})

	assert.Equal(t, 0.0, res.TotalRiskScore)
	assert.Equal(t, 10, res.MaxPossibleScore)
	assert.Equal(t, 0.0, res.RiskPercentage)
	assert.Equal(t, LevelLow, res.RiskLevel)
	assert.Equal(t, 3, res.Answered)
}

func TestScore_MixedAnswers(t *testing.T) {
	e := NewEngine(loadCatalog(t, testCatalog))
	res := e.Score(map[string]string{"A1": "partially compliant", "T1": "no", "I1": "unsure"})

	// 4*0.5 + 2*1 + 4*1 (incident override)
	assert.Equal(t, 8.0, res.TotalRiskScore)
	assert.Equal(t, 80.0, res.RiskPercentage)
	assert.Equal(t, LevelHigh, res.RiskLevel)

	require.Len(t, res.Categories, 3)
	assert.Equal(t, catalog.CategoryAdministrative, res.Categories[0].Category)
	assert.Equal(t, 2.0, res.Categories[0].Score)
	assert.Equal(t, 50.0, res.Categories[0].RiskPercentage)
	assert.Equal(t, catalog.CategoryIncident, res.Categories[2].Category)
	assert.Equal(t, 100.0, res.Categories[2].RiskPercentage)
}

func TestScore_UnansweredAndUnknownValues(t *testing.T) {
	e := NewEngine(loadCatalog(t, testCatalog))

	res := e.Score(map[string]string{"T1": "maybe"})
	assert.Equal(t, 2.0, res.TotalRiskScore, "unknown answer values count full severity")
	assert.Equal(t, 20.0, res.RiskPercentage)
	assert.Equal(t, LevelLow, res.RiskLevel)
	assert.Equal(t, 1, res.Answered)

	res = e.Score(map[string]string{"X9": "no"})
	assert.Equal(t, 0.0, res.TotalRiskScore, "answers outside the catalog are ignored")
	assert.Equal(t, 0, res.Answered)
}

func TestScore_EmptyCatalog(t *testing.T) {
	e := NewEngine(loadCatalog(t, "version: empty\nquestions: []\n"))
	res := e.Score(map[string]string{"A1": "no"})

	assert.Equal(t, 0, res.MaxPossibleScore)
	assert.Equal(t, 0.0, res.RiskPercentage)
	assert.Equal(t, LevelLow, res.RiskLevel)
	assert.Empty(t, res.Categories)
}

func TestPercentage_Rounding(t *testing.T) {
	assert.Equal(t, 33.3, Percentage(1, 3))
	assert.Equal(t, 66.7, Percentage(2, 3))
	assert.Equal(t, 0.0, Percentage(5, 0))
	assert.Equal(t, 100.0, Percentage(3, 3))
}

func TestLevelFor(t *testing.T) {
	tiers := catalog.DefaultTiers
	assert.Equal(t, LevelLow, LevelFor(0, tiers))
	assert.Equal(t, LevelLow, LevelFor(29.9, tiers))
	assert.Equal(t, LevelMedium, LevelFor(30, tiers))
	assert.Equal(t, LevelMedium, LevelFor(59.9, tiers))
	assert.Equal(t, LevelHigh, LevelFor(60, tiers))
	assert.Equal(t, LevelHigh, LevelFor(100, tiers))
}

func TestScore_DefaultCatalogWorstCase(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	e := NewEngine(c)

	answers := map[string]string{}
	for _, q := range c.Questions() {
		answers[q.ID] = "no"
	}
	res := e.Score(answers)
	assert.Equal(t, float64(c.MaxScore()), res.TotalRiskScore)
	assert.Equal(t, 100.0, res.RiskPercentage)
	assert.Equal(t, LevelHigh, res.RiskLevel)
	assert.Len(t, res.Categories, len(catalog.Categories))
}
