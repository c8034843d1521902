// Package condition implements the match conditions a bundler rule can
// carry on a resource path or a resource query.
//
// Raw conditions come in several shapes (string, regular expression,
// function, list, object with test/include/exclude). Compile resolves a raw
// shape once into one of the closed set of Condition variants below, so
// later stages never look at raw shapes again.
package condition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Condition is a compiled predicate over a path or a query string.
type Condition interface {
	Match(value string) bool
	String() string
}

// Prefix matches values starting with the string. This is what a plain
// string condition means to the bundler.
type Prefix string

func (p Prefix) Match(value string) bool { return strings.HasPrefix(value, string(p)) }
func (p Prefix) String() string          { return fmt.Sprintf("prefix(%q)", string(p)) }

// Suffix matches values ending with the string.
type Suffix string

func (s Suffix) Match(value string) bool { return strings.HasSuffix(value, string(s)) }
func (s Suffix) String() string          { return fmt.Sprintf("suffix(%q)", string(s)) }

// Pattern matches values against a regular expression (unanchored, like RegExp#test).
type Pattern struct {
	re *regexp.Regexp
}

func NewPattern(re *regexp.Regexp) Pattern { return Pattern{re: re} }

func (p Pattern) Match(value string) bool { return p.re != nil && p.re.MatchString(value) }
func (p Pattern) String() string {
	if p.re == nil {
		return "/(nil)/"
	}
	return "/" + p.re.String() + "/"
}

// Glob matches values against a doublestar glob. Relative globs are matched
// against the path with its leading slash removed.
type Glob struct {
	pattern string
}

func NewGlob(pattern string) (Glob, error) {
	if !doublestar.ValidatePattern(pattern) {
		return Glob{}, fmt.Errorf("%w: bad glob %q", ErrInvalidCondition, pattern)
	}
	return Glob{pattern: pattern}, nil
}

func (g Glob) Match(value string) bool {
	if !strings.HasPrefix(g.pattern, "/") {
		value = strings.TrimPrefix(value, "/")
	}
	ok, err := doublestar.Match(g.pattern, value)
	return err == nil && ok
}

func (g Glob) String() string { return fmt.Sprintf("glob(%q)", g.pattern) }

// Predicate wraps a caller supplied function.
type Predicate struct {
	fn     func(string) bool
	name   string
	opaque bool
}

// Func wraps fn as a condition. name is only used for display.
func Func(name string, fn func(string) bool) Predicate {
	return Predicate{fn: fn, name: name}
}

// Opaque wraps fn as a condition whose answer depends on more than the
// path itself (file contents, directory listings). Such a condition cannot
// be evaluated against a fabricated path; see Probeable.
func Opaque(name string, fn func(string) bool) Predicate {
	return Predicate{fn: fn, name: name, opaque: true}
}

func (p Predicate) Match(value string) bool { return p.fn != nil && p.fn(value) }
func (p Predicate) String() string {
	name := p.name
	if name == "" {
		name = "anonymous"
	}
	if p.opaque {
		return "opaque(" + name + ")"
	}
	return "func(" + name + ")"
}

// AnyOf matches when at least one member matches. An empty list never matches.
type AnyOf []Condition

func (a AnyOf) Match(value string) bool {
	for _, c := range a {
		if c.Match(value) {
			return true
		}
	}
	return false
}

func (a AnyOf) String() string { return "any(" + join(a) + ")" }

// All matches when every member matches.
type All []Condition

func (a All) Match(value string) bool {
	for _, c := range a {
		if !c.Match(value) {
			return false
		}
	}
	return true
}

func (a All) String() string { return "all(" + join(a) + ")" }

// Scoped is the object form of a condition: every Include term must match
// and no Exclude term may match.
type Scoped struct {
	Include []Condition
	Exclude []Condition
}

func (s Scoped) Match(value string) bool {
	for _, c := range s.Include {
		if !c.Match(value) {
			return false
		}
	}
	for _, c := range s.Exclude {
		if c.Match(value) {
			return false
		}
	}
	return true
}

func (s Scoped) String() string {
	var parts []string
	if len(s.Include) > 0 {
		parts = append(parts, "include: "+join(s.Include))
	}
	if len(s.Exclude) > 0 {
		parts = append(parts, "exclude: "+join(s.Exclude))
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

// Probeable reports whether c can be evaluated against a fabricated path,
// i.e. it contains no Opaque predicate.
func Probeable(c Condition) bool {
	switch v := c.(type) {
	case nil:
		return true
	case Predicate:
		return !v.opaque
	case AnyOf:
		return allProbeable(v)
	case All:
		return allProbeable(v)
	case Scoped:
		return allProbeable(v.Include) && allProbeable(v.Exclude)
	default:
		return true
	}
}

func allProbeable(list []Condition) bool {
	for _, c := range list {
		if !Probeable(c) {
			return false
		}
	}
	return true
}

func join(list []Condition) string {
	parts := make([]string, len(list))
	for i, c := range list {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
