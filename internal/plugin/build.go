package plugin

import (
	"fmt"

	"github.com/klyr/sfcroute/internal/condition"
	"github.com/klyr/sfcroute/internal/errors"
	"github.com/klyr/sfcroute/internal/resource"
	"github.com/klyr/sfcroute/internal/rules"
)

// Synthetic holds the rules derived from the ownership rule.
type Synthetic struct {
	// TemplateRule is nil unless render-function routing is enabled.
	TemplateRule *rules.Rule
	Clones       []*rules.Rule
	// CloneSources are the top-level indices the clones were made from.
	CloneSources []int
	StyleRule    *rules.Rule
}

// Build derives the template, render-function and style routing rules.
// shared is the split step's options cell; the template step holds the same
// pointer. Clones are only built when renderFn is set.
func Build(normalized []*rules.Rule, owner *rules.Rule, shared *rules.Options, renderFn bool, opts Options) (*Synthetic, error) {
	opts.applyDefaults()
	out := &Synthetic{
		StyleRule: &rules.Rule{
			ResourceQuery: blockQuery(opts.QueryMarker, resource.BlockStyle),
			Use:           []*rules.Step{{Loader: opts.StylePostLoader}},
		},
	}

	if !renderFn {
		return out, nil
	}

	out.TemplateRule = &rules.Rule{
		ResourceQuery: blockQuery(opts.QueryMarker, resource.BlockTemplate),
		Use:           []*rules.Step{{Loader: opts.TemplateLoader, Options: shared}},
	}

	for i, r := range normalized {
		if r == owner {
			continue
		}
		ok, err := handlesLogic(r, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		clone, err := cloneForRenderFn(r, opts.QueryMarker, fmt.Sprintf("rules[%d]", i))
		if err != nil {
			return nil, err
		}
		out.Clones = append(out.Clones, clone)
		out.CloneSources = append(out.CloneSources, i)
	}

	return out, nil
}

// handlesLogic reports whether a rule is meant for plain script files.
func handlesLogic(r *rules.Rule, i int) (bool, error) {
	if r.Enforce != rules.EnforceNormal || r.Test == nil {
		return false, nil
	}
	if !condition.Probeable(r.Test) {
		return false, errors.Newf(errors.ErrInvalidConfiguration,
			"rules[%d]: condition %s depends on more than the file name and cannot be probed", i, r.Test)
	}
	return r.Test.Match(resource.LogicProbe), nil
}

func blockQuery(marker string, t resource.BlockType) condition.Condition {
	return condition.Func(fmt.Sprintf("%s&type=%s", marker, t), func(query string) bool {
		b, ok := resource.ParseBlock(query, marker)
		return ok && b.Type == t
	})
}

// cloneForRenderFn retargets a rule at compiled template modules. The clone
// keeps the chain and nested rules; its conditions move into a
// renderFnMatcher.
func cloneForRenderFn(r *rules.Rule, marker, at string) (*rules.Rule, error) {
	if r.Resource != nil && !condition.Probeable(r.Resource) {
		return nil, errors.Newf(errors.ErrInvalidConfiguration,
			"%s: condition %s depends on more than the file name and cannot be probed", at, r.Resource)
	}

	clone := &rules.Rule{
		Request: renderFnMatcher{
			marker:   marker,
			resource: r.Resource,
			query:    r.ResourceQuery,
			request:  r.Request,
		},
		Enforce: r.Enforce,
		Use:     append([]*rules.Step(nil), r.Use...),
		Extra:   r.Extra,
	}

	for i, child := range r.Rules {
		c, err := cloneForRenderFn(child, marker, fmt.Sprintf("%s.rules[%d]", at, i))
		if err != nil {
			return nil, err
		}
		clone.Rules = append(clone.Rules, c)
	}
	for i, child := range r.OneOf {
		c, err := cloneForRenderFn(child, marker, fmt.Sprintf("%s.oneOf[%d]", at, i))
		if err != nil {
			return nil, err
		}
		clone.OneOf = append(clone.OneOf, c)
	}

	return clone, nil
}

// renderFnMatcher accepts template block requests whose compiled output,
// named like a script file next to the component, the source rule would
// accept.
type renderFnMatcher struct {
	marker   string
	resource condition.Condition
	query    condition.Condition
	request  rules.RequestMatcher
}

func (m renderFnMatcher) MatchRequest(path, query string) bool {
	b, ok := resource.ParseBlock(query, m.marker)
	if !ok || b.Type != resource.BlockTemplate {
		return false
	}
	fake := resource.RenderFnPath(path, b.TS)
	if m.resource != nil && !m.resource.Match(fake) {
		return false
	}
	if m.query != nil && !m.query.Match(query) {
		return false
	}
	if m.request != nil && !m.request.MatchRequest(fake, query) {
		return false
	}
	return true
}

func (m renderFnMatcher) String() string {
	s := fmt.Sprintf("renderFn(%s&type=%s", m.marker, resource.BlockTemplate)
	if m.resource != nil {
		s += "; resource: " + m.resource.String()
	}
	if m.query != nil {
		s += "; resourceQuery: " + m.query.String()
	}
	return s + ")"
}
