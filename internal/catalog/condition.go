package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedCondition is returned for required_if expressions outside the
// supported grammar:
//
//	expr   := clause { "or" clause }
//	clause := "answer" "==" STRING
//
// STRING is a single- or double-quoted literal without escapes. Literals are
// compared verbatim against the submitted answer.
var ErrUnsupportedCondition = errors.New("unsupported required_if expression")

// Condition decides whether an answer value triggers an evidence requirement.
type Condition interface {
	Matches(answer string) bool
	String() string
}

// Equals matches one literal answer value.
type Equals struct {
	Value string
}

func (e Equals) Matches(answer string) bool { return answer == e.Value }

func (e Equals) String() string { return fmt.Sprintf("answer == %q", e.Value) }

// Or matches when any of its terms does.
type Or []Condition

func (o Or) Matches(answer string) bool {
	for _, c := range o {
		if c.Matches(answer) {
			return true
		}
	}
	return false
}

func (o Or) String() string {
	parts := make([]string, len(o))
	for i, c := range o {
		parts[i] = c.String()
	}
	return strings.Join(parts, " or ")
}

// Constant ignores the answer. It stands in for expressions that could not be
// parsed under the fail-open and fail-closed policies.
type Constant bool

func (c Constant) Matches(string) bool { return bool(c) }

func (c Constant) String() string {
	if c {
		return "always"
	}
	return "never"
}

// ParseCondition parses a required_if expression.
func ParseCondition(expr string) (Condition, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrUnsupportedCondition)
	}

	var terms Or
	for i := 0; ; {
		if i+3 > len(toks) ||
			toks[i].kind != tokIdent || toks[i].text != "answer" ||
			toks[i+1].kind != tokEq ||
			toks[i+2].kind != tokString {
			return nil, fmt.Errorf("%w: expected answer == '<value>' at %q", ErrUnsupportedCondition, expr)
		}
		terms = append(terms, Equals{Value: toks[i+2].text})
		i += 3

		if i == len(toks) {
			break
		}
		if toks[i].kind != tokIdent || toks[i].text != "or" {
			return nil, fmt.Errorf("%w: only 'or' may join clauses in %q", ErrUnsupportedCondition, expr)
		}
		i++
	}

	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokEq
	tokString
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '=':
			if i+1 >= len(s) || s[i+1] != '=' {
				return nil, fmt.Errorf("%w: stray '=' in %q", ErrUnsupportedCondition, s)
			}
			toks = append(toks, token{kind: tokEq})
			i += 2
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated literal in %q", ErrUnsupportedCondition, s)
			}
			toks = append(toks, token{kind: tokString, text: s[i+1 : i+1+end]})
			i += end + 2
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrUnsupportedCondition, c, s)
		}
	}
	return toks, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
