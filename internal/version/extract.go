package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoVersion is returned when a rule cannot locate a version in tool output.
var ErrNoVersion = errors.New("no version found in output")

// RuleKind selects how a Rule locates the version in command output.
type RuleKind int

const (
	// FieldRule takes a whitespace-separated field by index.
	FieldRule RuleKind = iota
	// RegexRule takes the first capture group (or whole match) of a pattern.
	RegexRule
)

// String returns the string representation of the rule kind
func (k RuleKind) String() string {
	switch k {
	case FieldRule:
		return "field"
	case RegexRule:
		return "regex"
	default:
		return "unknown"
	}
}

// Rule describes where a tool prints its version. Rules are declared once
// alongside the requirement that uses them.
type Rule struct {
	Kind    RuleKind
	Index   int            // field index for FieldRule
	Pattern *regexp.Regexp // pattern for RegexRule

	TrimPrefix string   // removed from the start of the raw match, e.g. "v"
	TrimSuffix string   // removed from the end of the raw match, e.g. ","
	Strip      []string // qualifier substrings removed anywhere, e.g. "alpha"
}

// Field returns a FieldRule selecting the field at index.
func Field(index int) Rule {
	return Rule{Kind: FieldRule, Index: index}
}

// Regex returns a RegexRule for pattern. It panics if pattern does not compile.
func Regex(pattern string) Rule {
	return Rule{Kind: RegexRule, Pattern: regexp.MustCompile(pattern)}
}

// WithPrefix returns a copy of r that trims prefix from the match.
func (r Rule) WithPrefix(prefix string) Rule {
	r.TrimPrefix = prefix
	return r
}

// WithSuffix returns a copy of r that trims suffix from the match.
func (r Rule) WithSuffix(suffix string) Rule {
	r.TrimSuffix = suffix
	return r
}

// WithStrip returns a copy of r that removes the given qualifiers.
func (r Rule) WithStrip(qualifiers ...string) Rule {
	r.Strip = append([]string(nil), qualifiers...)
	return r
}

// Extract applies the rule to raw command output.
func (r Rule) Extract(output string) (string, error) {
	var raw string

	switch r.Kind {
	case FieldRule:
		fields := strings.Fields(strings.TrimSpace(output))
		if r.Index < 0 || r.Index >= len(fields) {
			return "", fmt.Errorf("%w: field %d of %d", ErrNoVersion, r.Index, len(fields))
		}
		raw = fields[r.Index]

	case RegexRule:
		if r.Pattern == nil {
			return "", fmt.Errorf("regex rule has no pattern")
		}
		m := r.Pattern.FindStringSubmatch(output)
		if m == nil {
			return "", fmt.Errorf("%w: pattern %s did not match", ErrNoVersion, r.Pattern)
		}
		raw = m[0]
		if len(m) > 1 {
			raw = m[1]
		}

	default:
		return "", fmt.Errorf("unknown rule kind: %d", r.Kind)
	}

	raw = strings.TrimPrefix(raw, r.TrimPrefix)
	raw = strings.TrimSuffix(raw, r.TrimSuffix)
	for _, q := range r.Strip {
		raw = strings.ReplaceAll(raw, q, "")
	}

	if raw == "" {
		return "", ErrNoVersion
	}
	return raw, nil
}
