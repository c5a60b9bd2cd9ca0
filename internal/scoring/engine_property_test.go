package scoring

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"hipaa-compliance/internal/catalog"
)

// answersFrom maps generated indexes onto a question's options. An index past
// the options leaves the question unanswered; one further picks an unknown value.
func answersFrom(qs []catalog.Question, picks []int) map[string]string {
	answers := make(map[string]string)
	for i, q := range qs {
		if i >= len(picks) {
			break
		}
		switch p := picks[i]; {
		case p < len(q.Options):
			answers[q.ID] = q.Options[p]
		case p == len(q.Options)+1:
			answers[q.ID] = "something else"
		}
	}
	return answers
}

func TestScoreProperties(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	e := NewEngine(c)
	qs := c.Questions()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	picks := gen.SliceOfN(len(qs), gen.IntRange(0, 6))

	properties.Property("risk percentage stays within [0, 100]", prop.ForAll(
		func(p []int) bool {
			res := e.Score(answersFrom(qs, p))
			return res.RiskPercentage >= 0 && res.RiskPercentage <= 100
		},
		picks,
	))

	properties.Property("max possible score ignores answers", prop.ForAll(
		func(p []int) bool {
			return e.Score(answersFrom(qs, p)).MaxPossibleScore == c.MaxScore()
		},
		picks,
	))

	properties.Property("scoring is deterministic", prop.ForAll(
		func(p []int) bool {
			a := answersFrom(qs, p)
			r1, r2 := e.Score(a), e.Score(a)
			return r1.TotalRiskScore == r2.TotalRiskScore &&
				r1.RiskPercentage == r2.RiskPercentage &&
				r1.RiskLevel == r2.RiskLevel
		},
		picks,
	))

	properties.Property("each contribution is within [0, severity]", prop.ForAll(
		func(p []int) bool {
			for id, answer := range answersFrom(qs, p) {
				q, _ := c.Question(id)
				v := e.Contribution(q, answer)
				if v < 0 || v > float64(q.Severity) {
					return false
				}
			}
			return true
		},
		picks,
	))

	properties.TestingRun(t)
}
