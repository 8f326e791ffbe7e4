package remote

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Op is the comparison of a filter clause.
type Op int

const (
	// OpEq requires the field to equal the value.
	OpEq Op = iota
	// OpMatch requires the field to match a wildcard pattern.
	OpMatch
)

// Clause is one predicate of a Filter.
type Clause struct {
	Field Field
	Op    Op
	Value string
}

// Eq returns an equality clause.
func Eq(field Field, value string) Clause {
	return Clause{Field: field, Op: OpEq, Value: value}
}

// Match returns a wildcard clause. Patterns use glob syntax: * matches any
// run of characters.
func Match(field Field, pattern string) Clause {
	return Clause{Field: field, Op: OpMatch, Value: pattern}
}

// Filter is a conjunction of clauses. An empty filter matches everything.
type Filter []Clause

// ScopeTag returns the tag stored on entities created for customID in scope.
func ScopeTag(scope, customID string) string {
	return scope + "_" + customID
}

// ScopePattern returns a pattern matching every tag of scope.
func ScopePattern(scope string) string {
	return glob.QuoteMeta(scope+"_") + "*"
}

// ScopeFilter selects entities tagged with scope.
func ScopeFilter(scope string) Filter {
	return Filter{Match(FieldScopeTag, ScopePattern(scope))}
}

// Predicate reports whether a set of fields satisfies a compiled filter.
type Predicate func(Fields) bool

// Compile prepares the filter for evaluation.
func (f Filter) Compile() (Predicate, error) {
	type compiled struct {
		field Field
		eq    string
		glob  glob.Glob
	}

	clauses := make([]compiled, 0, len(f))
	for _, c := range f {
		switch c.Op {
		case OpEq:
			clauses = append(clauses, compiled{field: c.Field, eq: c.Value})
		case OpMatch:
			g, err := glob.Compile(c.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q for %s: %w", c.Value, c.Field, err)
			}
			clauses = append(clauses, compiled{field: c.Field, glob: g})
		default:
			return nil, fmt.Errorf("unknown filter op %d", c.Op)
		}
	}

	return func(fields Fields) bool {
		for _, c := range clauses {
			value, ok := fields[c.field]
			if !ok {
				return false
			}
			if c.glob != nil {
				if !c.glob.Match(value) {
					return false
				}
				continue
			}
			if value != c.eq {
				return false
			}
		}
		return true
	}, nil
}

// Apply returns the issues matching the filter, preserving order.
func (f Filter) Apply(issues []Issue) ([]Issue, error) {
	match, err := f.Compile()
	if err != nil {
		return nil, err
	}
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if match(issue.Fields) {
			out = append(out, issue)
		}
	}
	return out, nil
}

// literalPrefix returns the part of a glob pattern before its first
// metacharacter, with escapes removed.
func literalPrefix(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch ch {
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteByte(pattern[i])
			}
		case '*', '?', '[', '{':
			return b.String()
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
