package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultCatalog []byte

//go:embed schema.json
var catalogSchema string

const schemaURL = "https://schemas.hipaa-compliance.local/catalog.schema.json"

// ConditionPolicy decides what happens to a required_if expression that the
// parser does not understand.
type ConditionPolicy string

const (
	// PolicyStrict rejects the catalog.
	PolicyStrict ConditionPolicy = "strict"
	// PolicyFailOpen treats the expression as never matching, so evidence is
	// not required. Audit gaps go unnoticed under this policy.
	PolicyFailOpen ConditionPolicy = "fail-open"
	// PolicyFailClosed treats the expression as always matching.
	PolicyFailClosed ConditionPolicy = "fail-closed"
)

func ParseConditionPolicy(s string) (ConditionPolicy, error) {
	switch p := ConditionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyStrict, nil
	case PolicyStrict, PolicyFailOpen, PolicyFailClosed:
		return p, nil
	default:
		return "", fmt.Errorf("unknown condition policy %q", s)
	}
}

type Options struct {
	ConditionPolicy ConditionPolicy
	Logger          *slog.Logger
}

// Tiers are the risk percentage cut points. A percentage below Medium is low,
// below High is medium, anything else is high.
type Tiers struct {
	Medium float64 `yaml:"medium" json:"medium"`
	High   float64 `yaml:"high" json:"high"`
}

var DefaultTiers = Tiers{Medium: 30, High: 60}

// ScoringPolicy maps answer values to the share of a question's severity that
// the answer contributes to the risk score.
type ScoringPolicy struct {
	Default    map[string]float64              `yaml:"default" json:"default"`
	Categories map[Category]map[string]float64 `yaml:"categories" json:"categories,omitempty"`
}

var defaultWeights = map[string]float64{
	"yes":                 0,
	"partially compliant": 0.5,
	"no":                  1,
	"not applicable":      0,
	"unsure":              0.75,
}

// Weight returns the weight for an answer in a category. Category overrides
// win over the default table. ok is false when neither table has the answer.
func (p ScoringPolicy) Weight(c Category, answer string) (w float64, ok bool) {
	if m, found := p.Categories[c]; found {
		if w, ok = m[answer]; ok {
			return w, true
		}
	}
	w, ok = p.Default[answer]
	return w, ok
}

type document struct {
	Version  string `yaml:"version"`
	Defaults struct {
		Options []string `yaml:"options"`
	} `yaml:"defaults"`
	Scoring   ScoringPolicy `yaml:"scoring"`
	Tiers     *Tiers        `yaml:"tiers"`
	Questions []Question    `yaml:"questions"`
}

// Catalog is the loaded, validated questionnaire.
type Catalog struct {
	version   string
	questions []Question
	byID      map[string]int
	scoring   ScoringPolicy
	tiers     Tiers
	maxScore  int
}

// Default parses the embedded catalog with the strict policy.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog), Options{})
}

// LoadFile parses a catalog from disk.
func LoadFile(path string, opts Options) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f, opts)
}

// Load parses, validates and indexes a YAML catalog.
func Load(r io.Reader, opts Options) (*Catalog, error) {
	if opts.ConditionPolicy == "" {
		opts.ConditionPolicy = PolicyStrict
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		version: doc.Version,
		byID:    make(map[string]int, len(doc.Questions)),
		scoring: doc.Scoring,
		tiers:   DefaultTiers,
	}
	if c.scoring.Default == nil {
		c.scoring.Default = defaultWeights
	}
	if doc.Tiers != nil {
		c.tiers = *doc.Tiers
	}
	if c.tiers.Medium > c.tiers.High {
		return nil, fmt.Errorf("tiers: medium cut point %.1f above high cut point %.1f", c.tiers.Medium, c.tiers.High)
	}

	seqs := make(map[int]string, len(doc.Questions))
	var errs []error
	for _, q := range doc.Questions {
		if _, dup := c.byID[q.ID]; dup {
			errs = append(errs, fmt.Errorf("question %s: duplicate id", q.ID))
			continue
		}
		if other, dup := seqs[q.Sequence]; dup {
			errs = append(errs, fmt.Errorf("question %s: sequence %d already used by %s", q.ID, q.Sequence, other))
			continue
		}
		seqs[q.Sequence] = q.ID

		if len(q.Options) == 0 {
			q.Options = append([]string(nil), doc.Defaults.Options...)
		}
		if len(q.Options) == 0 {
			errs = append(errs, fmt.Errorf("question %s: no answer options", q.ID))
			continue
		}

		if expr := strings.TrimSpace(q.Evidence.RequiredIf); expr != "" {
			cond, err := ParseCondition(expr)
			if err != nil {
				switch opts.ConditionPolicy {
				case PolicyFailOpen:
					opts.Logger.Warn("required_if not understood, evidence will not be required",
						"question", q.ID, "expr", expr)
					cond = Constant(false)
				case PolicyFailClosed:
					opts.Logger.Warn("required_if not understood, evidence will always be required",
						"question", q.ID, "expr", expr)
					cond = Constant(true)
				default:
					errs = append(errs, fmt.Errorf("question %s: %w", q.ID, err))
					continue
				}
			}
			q.Evidence.Condition = cond
		}

		c.byID[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
		c.maxScore += q.Severity
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(c.questions, func(i, j int) bool {
		return c.questions[i].Sequence < c.questions[j].Sequence
	})
	for i, q := range c.questions {
		c.byID[q.ID] = i
	}

	return c, nil
}

func validateSchema(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(catalogSchema)); err != nil {
		return fmt.Errorf("catalog schema load failed: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("catalog schema compile failed: %w", err)
	}

	// The validator expects JSON-shaped values, so go through encoding/json.
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	js, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("catalog is not representable as JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("catalog schema validation failed: %w", err)
	}
	return nil
}

func (c *Catalog) Version() string { return c.version }

// Questions returns the questions ordered by sequence. The slice is a copy.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

func (c *Catalog) Len() int { return len(c.questions) }

func (c *Catalog) Question(id string) (Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

// MaxScore is the sum of all severities. It does not depend on answers.
func (c *Catalog) MaxScore() int { return c.maxScore }

func (c *Catalog) Scoring() ScoringPolicy { return c.scoring }

func (c *Catalog) Tiers() Tiers { return c.tiers }

// ValidateAnswers checks that every answer refers to a known question and is
// one of that question's options. Missing answers are allowed.
func (c *Catalog) ValidateAnswers(answers map[string]string) error {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		q, ok := c.Question(id)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown question %q", id))
			continue
		}
		if !q.HasOption(answers[id]) {
			errs = append(errs, fmt.Errorf("question %s: %q is not one of %s",
				id, answers[id], strings.Join(q.Options, ", ")))
		}
	}
	return errors.Join(errs...)
}
