// Package scoring turns questionnaire answers into a weighted risk score and
// a risk tier. The engine is a pure function of the catalog and a snapshot of
// answers; persisting the result is the caller's job.
package scoring

import (
	"math"

	"hipaa-compliance/internal/catalog"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// CategoryScore is the per-category slice of a Result.
type CategoryScore struct {
	Category       catalog.Category `json:"category"`
	Score          float64          `json:"score"`
	MaxScore       int              `json:"max_score"`
	RiskPercentage float64          `json:"risk_percentage"`
	Questions      int              `json:"questions"`
	Answered       int              `json:"answered"`
}

type Result struct {
	TotalRiskScore   float64         `json:"total_risk_score"`
	MaxPossibleScore int             `json:"max_possible_score"`
	RiskPercentage   float64         `json:"risk_percentage"`
	RiskLevel        Level           `json:"risk_level"`
	Answered         int             `json:"answered"`
	Categories       []CategoryScore `json:"categories"`
}

type Engine struct {
	catalog *catalog.Catalog
}

func NewEngine(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Contribution is the share of q's severity added by answer, always within
// [0, severity]. Answers missing from the catalog's weight tables count as
// fully non-compliant.
func (e *Engine) Contribution(q catalog.Question, answer string) float64 {
	w, ok := e.catalog.Scoring().Weight(q.Category, answer)
	if !ok {
		w = 1
	}
	w = math.Max(0, math.Min(1, w))
	return float64(q.Severity) * w
}

// Score evaluates answers against the whole catalog. Unanswered questions add
// nothing to the score but still count towards the maximum.
func (e *Engine) Score(answers map[string]string) Result {
	byCat := make(map[catalog.Category]*CategoryScore, len(catalog.Categories))
	for _, c := range catalog.Categories {
		byCat[c] = &CategoryScore{Category: c}
	}

	var res Result
	for _, q := range e.catalog.Questions() {
		cs := byCat[q.Category]
		cs.MaxScore += q.Severity
		cs.Questions++

		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		contrib := e.Contribution(q, answer)
		cs.Score += contrib
		cs.Answered++
		res.TotalRiskScore += contrib
		res.Answered++
	}

	res.MaxPossibleScore = e.catalog.MaxScore()
	res.RiskPercentage = Percentage(res.TotalRiskScore, res.MaxPossibleScore)
	res.RiskLevel = LevelFor(res.RiskPercentage, e.catalog.Tiers())

	for _, c := range catalog.Categories {
		cs := byCat[c]
		if cs.Questions == 0 {
			continue
		}
		cs.RiskPercentage = Percentage(cs.Score, cs.MaxScore)
		res.Categories = append(res.Categories, *cs)
	}
	return res
}

// Percentage is score/max*100 rounded to one decimal, 0 when max is 0.
func Percentage(score float64, max int) float64 {
	if max <= 0 {
		return 0
	}
	p := score / float64(max) * 100
	p = math.Round(p*10) / 10
	return math.Max(0, math.Min(100, p))
}

// LevelFor maps a percentage onto the catalog's tiers.
func LevelFor(pct float64, t catalog.Tiers) Level {
	switch {
	case pct >= t.High:
		return LevelHigh
	case pct >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}
