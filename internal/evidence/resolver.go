// Package evidence decides which answers need proof and models the proof
// itself: items grouped by kind plus an append-only audit trail.
package evidence

import (
	"hipaa-compliance/internal/catalog"
)

// IsEvidenceRequired applies a question's evidence policy to an answer.
// A question the catalog marks optional never requires evidence; a required
// question with a condition requires it only when the answer matches; a
// required question without one always requires it.
func IsEvidenceRequired(q catalog.Question, answer string) bool {
	if !q.Evidence.Required {
		return false
	}
	if q.Evidence.Condition != nil {
		return q.Evidence.Condition.Matches(answer)
	}
	return true
}

// Requirement is the resolved evidence need for one answered question.
type Requirement struct {
	QuestionID string                 `json:"question_id"`
	Sequence   int                    `json:"sequence"`
	Category   catalog.Category       `json:"category"`
	Text       string                 `json:"text"`
	Answer     string                 `json:"answer"`
	Required   bool                   `json:"required"`
	Types      []catalog.EvidenceType `json:"types"`
}

// Requirements resolves every answered question, in catalog order. Answers
// for questions the catalog does not know are ignored.
func Requirements(c *catalog.Catalog, answers map[string]string) []Requirement {
	var out []Requirement
	for _, q := range c.Questions() {
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		out = append(out, Requirement{
			QuestionID: q.ID,
			Sequence:   q.Sequence,
			Category:   q.Category,
			Text:       q.Text,
			Answer:     answer,
			Required:   IsEvidenceRequired(q, answer),
			Types:      q.Evidence.Types,
		})
	}
	return out
}
