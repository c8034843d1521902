package rules

import (
	"sort"

	"github.com/klyr/sfcroute/internal/condition"
)

// Enforce is the ordering category of a rule.
type Enforce string

const (
	EnforceNormal Enforce = ""
	EnforcePre    Enforce = "pre"
	EnforcePost   Enforce = "post"
)

// Options is a mutable loader options object. Steps that must see the same
// configuration hold the same *Options; nothing may replace a shared cell,
// only change its contents.
type Options struct {
	values map[string]any
}

// NewOptions returns a cell holding a shallow copy of values.
func NewOptions(values map[string]any) *Options {
	o := &Options{values: make(map[string]any, len(values))}
	for k, v := range values {
		o.values[k] = v
	}
	return o
}

func (o *Options) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Options) Set(key string, value any) {
	o.values[key] = value
}

func (o *Options) Delete(key string) {
	delete(o.values, key)
}

func (o *Options) Len() int {
	return len(o.values)
}

// Keys returns the option names in sorted order.
func (o *Options) Keys() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the current values.
func (o *Options) Snapshot() map[string]any {
	out := make(map[string]any, len(o.values))
	for k, v := range o.values {
		out[k] = v
	}
	return out
}

// Step is one loader invocation in a rule's chain.
type Step struct {
	Loader  string
	Ident   string
	Options *Options
}

// RequestMatcher is a predicate over a path and its query evaluated
// together. Rules derived for virtual modules use it when the decision on
// one depends on the other.
type RequestMatcher interface {
	MatchRequest(path, query string) bool
	String() string
}

// Rule is a normalized module rule. A nil condition means no constraint.
type Rule struct {
	Resource condition.Condition
	// Test is Resource without include/exclude scoping. It answers what
	// kind of file the rule is for, independent of where the file lives.
	Test          condition.Condition
	ResourceQuery condition.Condition
	Request       RequestMatcher
	Enforce       Enforce
	Use           []*Step
	Rules         []*Rule
	OneOf         []*Rule
	Extra         map[string]any
}

// Matches reports whether the rule's own conditions accept the request.
// Nested rules are not consulted.
func (r *Rule) Matches(path, query string) bool {
	if r.Resource != nil && !r.Resource.Match(path) {
		return false
	}
	if r.ResourceQuery != nil && !r.ResourceQuery.Match(query) {
		return false
	}
	if r.Request != nil && !r.Request.MatchRequest(path, query) {
		return false
	}
	return true
}
