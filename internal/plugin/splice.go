package plugin

import (
	"github.com/klyr/sfcroute/internal/rules"
)

// Splice inserts the style rule's steps directly after every step named
// cssLoader, in every rule of the tree. Each touched rule gets a new Use
// slice; steps themselves are not copied. It returns the number of
// insertions.
func Splice(normalized []*rules.Rule, styleRule *rules.Rule, cssLoader string) int {
	if styleRule == nil || len(styleRule.Use) == 0 {
		return 0
	}

	count := 0
	rules.Walk(normalized, func(r *rules.Rule) {
		hits := 0
		for _, step := range r.Use {
			if step.Loader == cssLoader {
				hits++
			}
		}
		if hits == 0 {
			return
		}

		use := make([]*rules.Step, 0, len(r.Use)+hits*len(styleRule.Use))
		for _, step := range r.Use {
			use = append(use, step)
			if step.Loader == cssLoader {
				use = append(use, styleRule.Use...)
			}
		}
		r.Use = use
		count += hits
	})
	return count
}
