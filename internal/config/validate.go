package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/klyr/sfcroute/internal/condition"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

// Validate checks the whole file and reports every problem at once.
func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if len(c.Module.Rules) == 0 {
		v.Add("module.rules must not be empty")
	}
	for i, rule := range c.Module.Rules {
		validateRule(v, fmt.Sprintf("module.rules[%d]", i), rule)
	}

	switch c.Plugin.Compiler {
	case "", CompilerAuto, Compiler26, Compiler27:
	default:
		v.Add("plugin.compiler must be auto|2.6|2.7")
	}
	if strings.HasPrefix(c.Plugin.Extension, ".") {
		v.Add("plugin.extension must not start with a dot")
	}
	if strings.HasPrefix(c.Plugin.FallbackExtension, ".") {
		v.Add("plugin.fallbackExtension must not start with a dot")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.Add("logging.level must be trace|debug|info|warn|error")
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func validateRule(v *ValidationError, at string, rule Rule) {
	hasScope := rule.Test != nil || rule.Include != nil || rule.Exclude != nil
	if hasScope && rule.Resource != nil {
		v.Add("%s: resource cannot be combined with test/include/exclude", at)
	}

	for name, raw := range map[string]any{
		"test":          rule.Test,
		"include":       rule.Include,
		"exclude":       rule.Exclude,
		"resource":      rule.Resource,
		"resourceQuery": rule.ResourceQuery,
	} {
		if raw == nil {
			continue
		}
		if _, err := condition.Compile(raw); err != nil {
			v.Add("%s.%s invalid: %v", at, name, err)
		}
	}

	switch rule.Enforce {
	case "", EnforcePre, EnforcePost:
	default:
		v.Add("%s.enforce must be pre|post", at)
	}

	if rule.Loader != "" && (rule.Use != nil || rule.Loaders != nil) {
		v.Add("%s: loader cannot be combined with use/loaders", at)
	}
	if rule.Use != nil && rule.Loaders != nil {
		v.Add("%s: use cannot be combined with loaders", at)
	}
	if rule.Options != nil && rule.Loader == "" {
		v.Add("%s.options requires loader", at)
	} else if _, err := rule.Steps(); err != nil {
		v.Add("%s.use invalid: %v", at, err)
	}

	for i, child := range rule.Rules {
		validateRule(v, fmt.Sprintf("%s.rules[%d]", at, i), child)
	}
	for i, child := range rule.OneOf {
		validateRule(v, fmt.Sprintf("%s.oneOf[%d]", at, i), child)
	}
}
