// Package esbuildhost runs a rewritten rule list inside an esbuild build.
// Every loaded file is matched against the rules by path and query, and
// the resulting chain of registered steps transforms its contents.
package esbuildhost

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/klyr/sfcroute/internal/logging"
	"github.com/klyr/sfcroute/internal/plugin"
	"github.com/klyr/sfcroute/internal/rules"
)

// StepFunc is the implementation of one loader.
type StepFunc func(ctx *Context, source string) (string, error)

// Context is what a step sees of the module it transforms.
type Context struct {
	Path  string
	Query string
	Step  *rules.Step
	// Loader is shared by every step of one module.
	Loader plugin.LoaderContext
}

type Options struct {
	Name string
	// Filter selects the files the host handles. Defaults to all.
	Filter string
	// Loader is the esbuild loader applied to transformed output.
	Loader api.Loader
}

// Plugin returns an esbuild plugin that routes loads through host.Rules.
// Files no rule matches are left to esbuild.
func Plugin(host *plugin.Host, steps map[string]StepFunc, opts Options) api.Plugin {
	if opts.Name == "" {
		opts.Name = "sfcroute"
	}
	if opts.Filter == "" {
		opts.Filter = ".*"
	}
	if opts.Loader == api.LoaderNone {
		opts.Loader = api.LoaderJS
	}
	log := logging.GetLogger("esbuildhost")

	return api.Plugin{
		Name: opts.Name,
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: opts.Filter}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				chain := rules.Chain(host.Rules, args.Path, args.Suffix)
				if len(chain) == 0 {
					return api.OnLoadResult{}, nil
				}

				data, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				out, err := runChain(host, steps, chain, args.Path, args.Suffix, string(data))
				if err != nil {
					log.Error().Err(err).Str("path", args.Path).Str("query", args.Suffix).Msg("step chain failed")
					return api.OnLoadResult{}, err
				}
				log.Debug().Str("path", args.Path).Str("query", args.Suffix).Int("steps", len(chain)).Msg("transformed")

				return api.OnLoadResult{
					Contents:   &out,
					Loader:     opts.Loader,
					ResolveDir: filepath.Dir(args.Path),
				}, nil
			})
		},
	}
}

// Run transforms source as host.Rules would for path and query. The bool
// result is false when no rule applies.
func Run(host *plugin.Host, steps map[string]StepFunc, path, query, source string) (string, bool, error) {
	chain := rules.Chain(host.Rules, path, query)
	if len(chain) == 0 {
		return source, false, nil
	}
	out, err := runChain(host, steps, chain, path, query, source)
	return out, true, err
}

// runChain applies the chain last to first, the order a loader runner
// uses.
func runChain(host *plugin.Host, steps map[string]StepFunc, chain []*rules.Step, path, query, source string) (string, error) {
	for _, step := range chain {
		if _, ok := steps[step.Loader]; !ok {
			return "", fmt.Errorf("%s%s: no step registered for loader %q", path, query, step.Loader)
		}
	}

	ctx := &Context{Path: path, Query: query, Loader: host.NewLoaderContext()}
	out := source
	for i := len(chain) - 1; i >= 0; i-- {
		ctx.Step = chain[i]
		next, err := steps[chain[i].Loader](ctx, out)
		if err != nil {
			return "", fmt.Errorf("%s%s: %s: %w", path, query, chain[i].Loader, err)
		}
		out = next
	}
	return out, nil
}

// RequireRewrite wraps the split step so it fails on hosts whose rule
// list was never rewritten.
func RequireRewrite(fn StepFunc) StepFunc {
	return func(ctx *Context, source string) (string, error) {
		if err := plugin.RequireMarker(ctx.Loader); err != nil {
			return "", err
		}
		return fn(ctx, source)
	}
}
