package rules

import (
	"fmt"

	"github.com/klyr/sfcroute/internal/condition"
	"github.com/klyr/sfcroute/internal/config"
	"github.com/klyr/sfcroute/internal/errors"
)

// Normalize converts authored rules into rules whose conditions are
// compiled predicates. raw is not modified.
func Normalize(raw []config.Rule) ([]*Rule, error) {
	out := make([]*Rule, 0, len(raw))
	for i, r := range raw {
		rule, err := normalizeRule(r, fmt.Sprintf("rules[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// NormalizeRule normalizes a single rule. at names the rule in errors.
func NormalizeRule(raw config.Rule, at string) (*Rule, error) {
	return normalizeRule(raw, at)
}

func normalizeRule(raw config.Rule, at string) (*Rule, error) {
	rule := &Rule{}

	resource, err := resourceCondition(raw, at)
	if err != nil {
		return nil, err
	}
	rule.Resource = resource

	switch {
	case raw.Resource != nil:
		rule.Test = resource
	case raw.Test != nil:
		test, err := condition.Compile(raw.Test)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidConfiguration, "%s.test", at)
		}
		rule.Test = test
	}

	if raw.ResourceQuery != nil {
		c, err := condition.Compile(raw.ResourceQuery)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidConfiguration, "%s.resourceQuery", at)
		}
		rule.ResourceQuery = c
	}

	switch Enforce(raw.Enforce) {
	case EnforceNormal, EnforcePre, EnforcePost:
		rule.Enforce = Enforce(raw.Enforce)
	default:
		return nil, errors.Newf(errors.ErrInvalidConfiguration, "%s.enforce: unexpected value %q", at, raw.Enforce)
	}

	if raw.Loader != "" && (raw.Use != nil || raw.Loaders != nil) {
		return nil, errors.Newf(errors.ErrInvalidConfiguration, "%s: loader cannot be combined with use/loaders", at)
	}
	if raw.Options != nil && raw.Loader == "" {
		return nil, errors.Newf(errors.ErrInvalidConfiguration, "%s: options requires loader", at)
	}
	entries, err := raw.Steps()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidConfiguration, "%s.use", at)
	}
	for _, e := range entries {
		step := &Step{Loader: e.Loader, Ident: e.Ident}
		if e.Options != nil {
			step.Options = NewOptions(e.Options)
		}
		rule.Use = append(rule.Use, step)
	}

	for i, child := range raw.Rules {
		c, err := normalizeRule(child, fmt.Sprintf("%s.rules[%d]", at, i))
		if err != nil {
			return nil, err
		}
		rule.Rules = append(rule.Rules, c)
	}
	for i, child := range raw.OneOf {
		c, err := normalizeRule(child, fmt.Sprintf("%s.oneOf[%d]", at, i))
		if err != nil {
			return nil, err
		}
		rule.OneOf = append(rule.OneOf, c)
	}

	if len(raw.Extra) > 0 {
		rule.Extra = make(map[string]any, len(raw.Extra))
		for k, v := range raw.Extra {
			rule.Extra[k] = v
		}
	}

	return rule, nil
}

// resourceCondition merges test/include/exclude into one condition, the
// same way an object condition {test, include, exclude} is read.
func resourceCondition(raw config.Rule, at string) (condition.Condition, error) {
	scoped := map[string]any{}
	if raw.Test != nil {
		scoped["test"] = raw.Test
	}
	if raw.Include != nil {
		scoped["include"] = raw.Include
	}
	if raw.Exclude != nil {
		scoped["exclude"] = raw.Exclude
	}

	if len(scoped) > 0 && raw.Resource != nil {
		return nil, errors.Newf(errors.ErrInvalidConfiguration, "%s: resource cannot be combined with test/include/exclude", at)
	}

	switch {
	case raw.Resource != nil:
		c, err := condition.Compile(raw.Resource)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidConfiguration, "%s.resource", at)
		}
		return c, nil
	case len(scoped) > 0:
		c, err := condition.Compile(scoped)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidConfiguration, "%s", at)
		}
		return c, nil
	default:
		return nil, nil
	}
}
