package plugin

import (
	"fmt"

	"github.com/klyr/sfcroute/internal/condition"
	"github.com/klyr/sfcroute/internal/config"
	"github.com/klyr/sfcroute/internal/errors"
	"github.com/klyr/sfcroute/internal/resource"
	"github.com/klyr/sfcroute/internal/rules"
)

// Location is the ownership rule of the component format.
type Location struct {
	Rule  *rules.Rule
	Index int
	// Extension is the extension whose representative path matched.
	Extension string
	Step      *rules.Step
	// Others lists further top-level rules that also match the
	// representative path; the first match wins.
	Others []int
}

// Locate finds the top-level rule that owns the component format and tags
// its split step with the shared options ident. raw and normalized are
// paired by index.
func Locate(raw []config.Rule, normalized []*rules.Rule, opts Options) (*Location, error) {
	opts.applyDefaults()
	if len(raw) != len(normalized) {
		return nil, errors.Newf(errors.ErrInternal, "raw and normalized rule lists differ in length (%d != %d)", len(raw), len(normalized))
	}

	tried := []string{opts.Extension, opts.FallbackExtension}
	loc := &Location{Index: -1}
	for _, ext := range tried {
		matches, err := ownershipCandidates(raw, resource.Representative(ext))
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			loc.Index = matches[0]
			loc.Others = matches[1:]
			loc.Extension = ext
			break
		}
	}

	if loc.Index < 0 {
		return nil, errors.Newf(errors.ErrMissingOwnershipRule,
			"no matching rule for .%s files found. Make sure there is at least one root-level rule that matches .%s or .%s files",
			opts.Extension, opts.Extension, opts.FallbackExtension).
			WithDetail("tried", tried)
	}

	loc.Rule = normalized[loc.Index]
	if len(loc.Rule.OneOf) > 0 {
		return nil, errors.Newf(errors.ErrUnsupportedRuleShape,
			"rules[%d]: rules for .%s files with oneOf are not supported", loc.Index, loc.Extension)
	}

	for _, step := range loc.Rule.Use {
		if opts.SplitLoader.MatchString(step.Loader) {
			loc.Step = step
			break
		}
	}
	if loc.Step == nil {
		return nil, errors.Newf(errors.ErrMissingSplitStep,
			"rules[%d]: no matching use for the split loader (%s) is found. Make sure the rule matching .%s files includes it in its use",
			loc.Index, opts.SplitLoader, loc.Extension)
	}

	loc.Step.Ident = opts.Ident
	if loc.Step.Options == nil {
		loc.Step.Options = rules.NewOptions(nil)
	}

	return loc, nil
}

// ownershipCandidates returns the indices of top-level rules whose resource,
// with include/exclude scoping removed, accepts the representative path.
// Rules with enforce set are cross-cutting and never own a format.
func ownershipCandidates(raw []config.Rule, fake string) ([]int, error) {
	var out []int
	for i, r := range raw {
		if r.Enforce != "" {
			continue
		}
		stripped := r.Clone()
		stripped.Include = nil
		stripped.Exclude = nil

		at := fmt.Sprintf("rules[%d]", i)
		n, err := rules.NormalizeRule(stripped, at)
		if err != nil {
			return nil, err
		}
		if n.Resource == nil {
			continue
		}
		if !condition.Probeable(n.Resource) {
			return nil, errors.Newf(errors.ErrInvalidConfiguration,
				"%s: condition %s depends on more than the file name and cannot be probed", at, n.Resource)
		}
		if n.Resource.Match(fake) {
			out = append(out, i)
		}
	}
	return out, nil
}
