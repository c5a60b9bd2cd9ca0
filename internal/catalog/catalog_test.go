package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallCatalog = `
version: "test"
defaults:
  options: ["yes", "no"]
questions:
  - id: Q2
    sequence: 2
    category: technical
    severity: 3
    text: "Second"
    evidence:
      required: true
      types: [screenshot]
  - id: Q1
    sequence: 1
    category: administrative
    severity: 5
    text: "First"
    options: ["yes", "partially compliant", "no"]
    evidence:
      required: true
      types: [document]
      required_if: "answer == 'yes' or answer == 'partially compliant'"
`

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	qs := c.Questions()
	assert.GreaterOrEqual(t, len(qs), 112)
	assert.LessOrEqual(t, len(qs), 150)

	sum := 0
	seen := map[Category]bool{}
	for i, q := range qs {
		if i > 0 {
			assert.Less(t, qs[i-1].Sequence, q.Sequence, "questions ordered by sequence")
		}
		assert.True(t, q.Category.Valid(), q.ID)
		assert.Positive(t, q.Severity, q.ID)
		assert.NotEmpty(t, q.Options, q.ID)
		for _, et := range q.Evidence.Types {
			assert.True(t, et.Valid(), "%s: %s", q.ID, et)
		}
		if q.Evidence.RequiredIf != "" {
			assert.NotNil(t, q.Evidence.Condition, q.ID)
		}
		seen[q.Category] = true
		sum += q.Severity
	}
	assert.Equal(t, sum, c.MaxScore())
	assert.Len(t, seen, len(Categories))
	assert.Equal(t, DefaultTiers, c.Tiers())
}

func TestLoad_SortsAndDefaultsOptions(t *testing.T) {
	c, err := Load(strings.NewReader(smallCatalog), Options{})
	require.NoError(t, err)

	qs := c.Questions()
	require.Len(t, qs, 2)
	assert.Equal(t, "Q1", qs[0].ID)
	assert.Equal(t, "Q2", qs[1].ID)
	assert.Equal(t, []string{"yes", "no"}, qs[1].Options)
	assert.Equal(t, 8, c.MaxScore())

	q, ok := c.Question("Q2")
	require.True(t, ok)
	assert.Equal(t, 2, q.Sequence)
	assert.Nil(t, q.Evidence.Condition)

	w, ok := c.Scoring().Weight(CategoryTechnical, "no")
	assert.True(t, ok)
	assert.Equal(t, 1.0, w)
}

func TestLoad_RejectsDuplicates(t *testing.T) {
	doc := strings.Replace(smallCatalog, "id: Q2", "id: Q1", 1)
	_, err := Load(strings.NewReader(doc), Options{})
	assert.ErrorContains(t, err, "duplicate id")

	doc = strings.Replace(smallCatalog, "sequence: 2", "sequence: 1", 1)
	_, err = Load(strings.NewReader(doc), Options{})
	assert.ErrorContains(t, err, "sequence 1 already used")
}

func TestLoad_SchemaViolation(t *testing.T) {
	doc := strings.Replace(smallCatalog, "category: technical", "category: billing", 1)
	_, err := Load(strings.NewReader(doc), Options{})
	assert.ErrorContains(t, err, "schema validation failed")

	doc = strings.Replace(smallCatalog, "severity: 3", "severity: 0", 1)
	_, err = Load(strings.NewReader(doc), Options{})
	assert.ErrorContains(t, err, "schema validation failed")
}

func TestLoad_ConditionPolicies(t *testing.T) {
	doc := strings.Replace(smallCatalog,
		"required_if: \"answer == 'yes' or answer == 'partially compliant'\"",
		"required_if: \"answer == 'yes' and answer == 'no'\"", 1)

	_, err := Load(strings.NewReader(doc), Options{})
	require.ErrorIs(t, err, ErrUnsupportedCondition)

	c, err := Load(strings.NewReader(doc), Options{ConditionPolicy: PolicyFailOpen})
	require.NoError(t, err)
	q, _ := c.Question("Q1")
	assert.Equal(t, Constant(false), q.Evidence.Condition)

	c, err = Load(strings.NewReader(doc), Options{ConditionPolicy: PolicyFailClosed})
	require.NoError(t, err)
	q, _ = c.Question("Q1")
	assert.Equal(t, Constant(true), q.Evidence.Condition)
}

func TestParseConditionPolicy(t *testing.T) {
	p, err := ParseConditionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParseConditionPolicy(" Fail-Open ")
	require.NoError(t, err)
	assert.Equal(t, PolicyFailOpen, p)

	_, err = ParseConditionPolicy("lenient")
	assert.Error(t, err)
}

func TestValidateAnswers(t *testing.T) {
	c, err := Load(strings.NewReader(smallCatalog), Options{})
	require.NoError(t, err)

	assert.NoError(t, c.ValidateAnswers(map[string]string{"Q1": "partially compliant"}))
	assert.NoError(t, c.ValidateAnswers(nil))

	err = c.ValidateAnswers(map[string]string{"Q2": "partially compliant", "Q9": "yes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown question "Q9"`)
	assert.Contains(t, err.Error(), `question Q2: "partially compliant" is not one of yes, no`)
}

func TestScoringPolicy_CategoryOverride(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	w, ok := c.Scoring().Weight(CategoryIncident, "unsure")
	require.True(t, ok)
	assert.Equal(t, 1.0, w)

	w, ok = c.Scoring().Weight(CategoryTechnical, "unsure")
	require.True(t, ok)
	assert.Equal(t, 0.75, w)

	_, ok = c.Scoring().Weight(CategoryTechnical, "maybe")
	assert.False(t, ok)
}
