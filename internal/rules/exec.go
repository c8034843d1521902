package rules

// Effect is one step contributed by a matched rule.
type Effect struct {
	Step    *Step
	Enforce Enforce
	Rule    *Rule
}

// Exec evaluates rules against a request in list order. Every matching rule
// contributes its steps, nested Rules are all evaluated, and only the first
// matching entry of a OneOf group is used. query carries its leading "?".
func Exec(rules []*Rule, path, query string) []Effect {
	var effects []Effect
	for _, rule := range rules {
		effects = execRule(rule, path, query, effects)
	}
	return effects
}

func execRule(rule *Rule, path, query string, effects []Effect) []Effect {
	if !rule.Matches(path, query) {
		return effects
	}

	for _, step := range rule.Use {
		effects = append(effects, Effect{Step: step, Enforce: rule.Enforce, Rule: rule})
	}

	for _, child := range rule.Rules {
		effects = execRule(child, path, query, effects)
	}

	for _, child := range rule.OneOf {
		if !child.Matches(path, query) {
			continue
		}
		effects = execRule(child, path, query, effects)
		break
	}

	return effects
}

// Chain returns the steps a request receives, grouped post, normal, pre.
// A loader runner applies them last to first.
func Chain(rules []*Rule, path, query string) []*Step {
	effects := Exec(rules, path, query)

	var post, normal, pre []*Step
	for _, e := range effects {
		switch e.Enforce {
		case EnforcePost:
			post = append(post, e.Step)
		case EnforcePre:
			pre = append(pre, e.Step)
		default:
			normal = append(normal, e.Step)
		}
	}

	out := make([]*Step, 0, len(effects))
	out = append(out, post...)
	out = append(out, normal...)
	out = append(out, pre...)
	return out
}

// Walk calls fn for every rule in the tree, parents before children.
func Walk(rules []*Rule, fn func(*Rule)) {
	for _, rule := range rules {
		fn(rule)
		Walk(rule.Rules, fn)
		Walk(rule.OneOf, fn)
	}
}
