package gen

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IdentifierPolicy selects how display names become identifiers.
type IdentifierPolicy string

const (
	// PolicyLegacy removes spaces and uppercases. It is byte compatible with
	// the artifacts downstream code was written against.
	PolicyLegacy IdentifierPolicy = "legacy"
	// PolicyStrict additionally maps every character outside [A-Z0-9_] to an
	// underscore and prefixes a leading digit, so the result always is a
	// valid C and Go identifier.
	PolicyStrict IdentifierPolicy = "strict"
)

// Valid reports whether p is a known policy.
func (p IdentifierPolicy) Valid() bool {
	return p == PolicyLegacy || p == PolicyStrict
}

// Sanitize applies the policy to a display name. It is pure: the same name
// always yields the same identifier.
func (p IdentifierPolicy) Sanitize(name string) string {
	// A Caser keeps state and must not be shared between goroutines.
	s := cases.Upper(language.Und).String(strings.ReplaceAll(name, " ", ""))
	if p != PolicyStrict {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 1)
	for i, r := range s {
		if i == 0 && r >= '0' && r <= '9' {
			b.WriteByte('_')
		}
		if r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Sanitize is the legacy identifier sanitizer: spaces are removed and the
// result is uppercased. "Espresso Lungo" becomes "ESPRESSOLUNGO".
func Sanitize(name string) string {
	return PolicyLegacy.Sanitize(name)
}

// ValidIdentifier reports whether s is a valid C identifier.
func ValidIdentifier(s string) bool {
	return cIdent.MatchString(s)
}

// GoName returns the exported Go identifier for a display name, e.g.
// "MOTOR_START" and "Motor Start" both become "MotorStart".
func GoName(name string) string {
	s := strings.ToLower(PolicyStrict.Sanitize(strings.ReplaceAll(name, " ", "_")))
	s = strings.TrimLeft(s, "_")
	if s == "" {
		return "X"
	}
	if s[0] >= '0' && s[0] <= '9' {
		return "X" + s
	}
	return inflect.Camelize(s)
}

// symbols tracks the identifiers emitted into one scope and reports when two
// distinct source names collapse to the same identifier.
type symbols struct {
	phase string
	scope string
	seen  map[string]string
}

func newSymbols(phase, scope string, reserved ...string) *symbols {
	s := &symbols{phase: phase, scope: scope, seen: make(map[string]string)}
	for _, r := range reserved {
		s.seen[r] = "<sentinel>"
	}
	return s
}

// add records ident as produced from name.
func (s *symbols) add(ident, name string) error {
	if prev, ok := s.seen[ident]; ok {
		return NewGenerationError(s.phase, s.scope,
			fmt.Sprintf("identifier %s of %q collides with %q", ident, name, prev), nil)
	}
	s.seen[ident] = name
	return nil
}
