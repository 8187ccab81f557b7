package resolver

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
)

// Range is a predicate over Versions. It wraps Masterminds/semver's
// Constraints type, which already parses every form spec.md requires —
// exact, caret, tilde, comparator, hyphen, disjunction ("||"), and the
// "*" wildcard — so no hand-rolled range grammar is needed here.
//
// A range that fails to parse as a Constraints expression (spec.md's
// "unknown range syntax") is treated as an exact-version literal instead.
type Range struct {
	raw    string
	c      *semver.Constraints
	single *semver.Version // set when raw was treated as an exact version
}

// ParseRange parses a range expression.
func ParseRange(s string) (Range, error) {
	if c, err := semver.NewConstraint(s); err == nil {
		return Range{raw: s, c: c}, nil
	}
	// Unknown syntax: fall back to treating it as an exact version.
	if v, err := semver.NewVersion(s); err == nil {
		return Range{raw: s, single: v}, nil
	}
	return Range{}, &unsatisfiableSyntaxError{expr: s}
}

type unsatisfiableSyntaxError struct{ expr string }

func (e *unsatisfiableSyntaxError) Error() string {
	return "range \"" + e.expr + "\" is neither a valid constraint nor an exact version"
}

// String returns the original range expression.
func (r Range) String() string {
	return r.raw
}

// Satisfies reports whether v is admitted by the range.
func (r Range) Satisfies(v Version) bool {
	if r.single != nil {
		return r.single.Equal(v.raw)
	}
	if r.c == nil {
		return false
	}
	return r.c.Check(v.raw)
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
