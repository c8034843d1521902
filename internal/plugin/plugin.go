// Package plugin rewrites a bundler rule list so that single-file
// components are split into virtual block modules and every block reaches
// the same processing a standalone file of its language would.
package plugin

import (
	"fmt"
	"time"

	"github.com/klyr/sfcroute/internal/compiler"
	"github.com/klyr/sfcroute/internal/config"
	"github.com/klyr/sfcroute/internal/errors"
	"github.com/klyr/sfcroute/internal/logging"
	"github.com/klyr/sfcroute/internal/observability"
	"github.com/klyr/sfcroute/internal/rules"
)

// LoaderMarker is set on every loader context once the rule list has been
// rewritten. The split step refuses to run without it.
const LoaderMarker = "vue-loader"

// LoaderContext is the per-module state a host hands to each step.
type LoaderContext map[string]any

// Host is the bundler configuration a pass rewrites.
type Host struct {
	// Context is the project directory used by the compiler probe.
	Context  string
	RawRules []config.Rule
	// Rules is the rewritten list, set by a successful Apply.
	Rules []*rules.Rule

	hooks  []func(LoaderContext)
	marked bool
}

// OnLoaderContext registers fn to run on every new loader context.
func (h *Host) OnLoaderContext(fn func(LoaderContext)) {
	h.hooks = append(h.hooks, fn)
}

// NewLoaderContext returns a context with every registered hook applied.
func (h *Host) NewLoaderContext() LoaderContext {
	ctx := LoaderContext{}
	for _, fn := range h.hooks {
		fn(ctx)
	}
	return ctx
}

// RequireMarker fails when ctx was not prepared by a rewritten host.
func RequireMarker(ctx LoaderContext) error {
	if marked, _ := ctx[LoaderMarker].(bool); !marked {
		return errors.New(errors.ErrInvalidConfiguration,
			"the split loader was used without the rule rewrite; make sure the plugin is applied to the build")
	}
	return nil
}

// Result describes one rewrite pass.
type Result struct {
	Location  *Location
	Flavor    compiler.Flavor
	Synthetic *Synthetic
	Spliced   int
	Rules     []*rules.Rule
	Warnings  []string
	Duration  time.Duration
}

// Describe returns the rewritten list as a serialisable tree.
func (r *Result) Describe() []rules.Description {
	return rules.Describe(r.Rules)
}

type Plugin struct {
	opts Options
}

func New(opts Options) *Plugin {
	opts.applyDefaults()
	return &Plugin{opts: opts}
}

// Apply runs one pass over h: normalize, locate the ownership rule, probe
// the compiler flavor, build the synthetic rules, splice style handling
// into CSS chains and assemble the final list. h.Rules is only replaced
// when every stage succeeds.
func (p *Plugin) Apply(h *Host) (*Result, error) {
	start := time.Now()
	log := p.opts.Logger
	trace := p.opts.Trace

	fail := func(stage string, err error) (*Result, error) {
		code := errors.GetErrorCode(err)
		log.Error().Err(err).Str("stage", stage).Str("code", string(code)).Msg("rewrite failed")
		_ = trace.Write(logging.Event{Stage: stage, Action: "error", Detail: err.Error()})
		p.opts.Metrics.Observe(observability.Pass{Duration: time.Since(start), ErrorCode: string(code)})
		return nil, err
	}

	normalized, err := rules.Normalize(h.RawRules)
	if err != nil {
		return fail("normalize", err)
	}
	log.Debug().Int("rules", len(normalized)).Msg("normalized rules")

	loc, err := Locate(h.RawRules, normalized, p.opts)
	if err != nil {
		return fail("locate", err)
	}
	owner := fmt.Sprintf("rules[%d]", loc.Index)
	_ = trace.Write(logging.Event{Stage: "locate", Action: "owner", Rule: owner, Loader: loc.Step.Loader, Detail: "." + loc.Extension})
	log.Debug().Str("rule", owner).Str("loader", loc.Step.Loader).Str("extension", loc.Extension).Msg("located ownership rule")

	res := &Result{Location: loc}
	for _, i := range loc.Others {
		w := fmt.Sprintf("rules[%d] also matches .%s files and is ignored; %s owns them", i, loc.Extension, owner)
		res.Warnings = append(res.Warnings, w)
		log.Warn().Int("rule", i).Str("owner", owner).Msg("more than one rule matches the component format")
	}

	flavor, err := p.opts.Probe.Detect(h.Context)
	if err != nil {
		return fail("probe", errors.Wrap(err, errors.ErrInvalidConfiguration, "detecting template compiler"))
	}
	res.Flavor = flavor
	_ = trace.Write(logging.Event{Stage: "probe", Action: "flavor", Detail: fmt.Sprintf("version=%q is27=%t", flavor.Version, flavor.Is27)})

	syn, err := Build(normalized, loc.Rule, loc.Step.Options, flavor.Is27, p.opts)
	if err != nil {
		return fail("build", err)
	}
	res.Synthetic = syn
	for n, i := range syn.CloneSources {
		_ = trace.Write(logging.Event{Stage: "build", Action: "clone", Rule: fmt.Sprintf("rules[%d]", i), Detail: syn.Clones[n].Request.String()})
	}

	res.Spliced = Splice(normalized, syn.StyleRule, p.opts.CSSLoader)
	_ = trace.Write(logging.Event{Stage: "splice", Action: "insert", Loader: p.opts.StylePostLoader, Detail: fmt.Sprintf("%d", res.Spliced)})

	res.Rules = assemble(syn, normalized)
	res.Duration = time.Since(start)
	h.Rules = res.Rules
	if !h.marked {
		h.OnLoaderContext(func(ctx LoaderContext) { ctx[LoaderMarker] = true })
		h.marked = true
	}

	p.opts.Metrics.Observe(observability.Pass{
		Duration:   res.Duration,
		Normalized: len(normalized),
		Cloned:     len(syn.Clones),
		Spliced:    res.Spliced,
		Template:   syn.TemplateRule != nil,
	})
	log.Info().
		Int("rules", len(res.Rules)).
		Int("clones", len(syn.Clones)).
		Int("spliced", res.Spliced).
		Bool("template", syn.TemplateRule != nil).
		Dur("took", res.Duration).
		Msg("rule list rewritten")

	return res, nil
}

// assemble orders the final list: clones, the template rule, then the
// existing rules. Earlier rules take precedence.
func assemble(syn *Synthetic, normalized []*rules.Rule) []*rules.Rule {
	out := make([]*rules.Rule, 0, len(syn.Clones)+1+len(normalized))
	out = append(out, syn.Clones...)
	if syn.TemplateRule != nil {
		out = append(out, syn.TemplateRule)
	}
	return append(out, normalized...)
}
