package condition

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// ErrInvalidCondition indicates a raw condition with an unsupported shape.
var ErrInvalidCondition = errors.New("invalid condition")

// Compile resolves a raw condition into a Condition.
//
// Accepted shapes:
//   - string: Prefix
//   - *regexp.Regexp: Pattern
//   - func(string) bool: Predicate
//   - Condition: used as is
//   - list: AnyOf
//   - map with leaf key "regex" (optional "flags"), "glob" or "suffix"
//   - map with any of test/include/or, and, exclude/not: Scoped
func Compile(raw any) (Condition, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: expected condition but got null", ErrInvalidCondition)
	case Condition:
		return v, nil
	case string:
		return Prefix(v), nil
	case *regexp.Regexp:
		if v == nil {
			return nil, fmt.Errorf("%w: nil regexp", ErrInvalidCondition)
		}
		return NewPattern(v), nil
	case func(string) bool:
		return Func("", v), nil
	case []string:
		out := make(AnyOf, len(v))
		for i, s := range v {
			out[i] = Prefix(s)
		}
		return out, nil
	case []Condition:
		return AnyOf(v), nil
	case []any:
		return compileList(v)
	case map[string]any:
		return compileObject(v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string key %v", ErrInvalidCondition, k)
			}
			converted[key] = val
		}
		return compileObject(converted)
	default:
		return nil, fmt.Errorf("%w: unexpected %T when condition was expected", ErrInvalidCondition, raw)
	}
}

func compileList(items []any) (Condition, error) {
	out := make(AnyOf, 0, len(items))
	for i, item := range items {
		c, err := Compile(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func compileObject(obj map[string]any) (Condition, error) {
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: expected condition but got {}", ErrInvalidCondition)
	}

	if leaf, ok, err := compileLeaf(obj); ok || err != nil {
		return leaf, err
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var scoped Scoped
	for _, key := range keys {
		value := obj[key]
		if value == nil {
			continue
		}
		switch key {
		case "test", "include", "or":
			c, err := Compile(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			scoped.Include = append(scoped.Include, c)
		case "and":
			items, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: and: expected a list, got %T", ErrInvalidCondition, value)
			}
			all := make(All, 0, len(items))
			for i, item := range items {
				c, err := Compile(item)
				if err != nil {
					return nil, fmt.Errorf("and[%d]: %w", i, err)
				}
				all = append(all, c)
			}
			scoped.Include = append(scoped.Include, all)
		case "exclude", "not":
			c, err := Compile(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			scoped.Exclude = append(scoped.Exclude, c)
		default:
			return nil, fmt.Errorf("%w: unexpected property %q in condition", ErrInvalidCondition, key)
		}
	}

	if len(scoped.Include) == 0 && len(scoped.Exclude) == 0 {
		return nil, fmt.Errorf("%w: expected condition but got an object with only null values", ErrInvalidCondition)
	}
	if len(scoped.Include) == 1 && len(scoped.Exclude) == 0 {
		return scoped.Include[0], nil
	}
	return scoped, nil
}

// compileLeaf handles the object forms that stand for a single matcher.
// ok is false when obj is a combinator object instead.
func compileLeaf(obj map[string]any) (Condition, bool, error) {
	leafKeys := 0
	for _, k := range []string{"regex", "glob", "suffix"} {
		if _, ok := obj[k]; ok {
			leafKeys++
		}
	}
	if leafKeys == 0 {
		return nil, false, nil
	}

	_, hasFlags := obj["flags"]
	allowed := leafKeys
	if hasFlags {
		allowed++
	}
	if leafKeys > 1 || len(obj) != allowed {
		return nil, true, fmt.Errorf("%w: regex/glob/suffix cannot be combined with other keys", ErrInvalidCondition)
	}

	if raw, ok := obj["regex"]; ok {
		source, ok := raw.(string)
		if !ok {
			return nil, true, fmt.Errorf("%w: regex must be a string, got %T", ErrInvalidCondition, raw)
		}
		if flags, ok := obj["flags"]; ok {
			f, ok := flags.(string)
			if !ok {
				return nil, true, fmt.Errorf("%w: flags must be a string, got %T", ErrInvalidCondition, flags)
			}
			prefix, err := regexFlags(f)
			if err != nil {
				return nil, true, err
			}
			source = prefix + source
		}
		re, err := regexp.Compile(source)
		if err != nil {
			return nil, true, fmt.Errorf("%w: regex %q: %v", ErrInvalidCondition, source, err)
		}
		return NewPattern(re), true, nil
	}
	if hasFlags {
		return nil, true, fmt.Errorf("%w: flags is only valid with regex", ErrInvalidCondition)
	}

	if raw, ok := obj["glob"]; ok {
		pattern, ok := raw.(string)
		if !ok {
			return nil, true, fmt.Errorf("%w: glob must be a string, got %T", ErrInvalidCondition, raw)
		}
		g, err := NewGlob(pattern)
		return g, true, err
	}

	raw := obj["suffix"]
	suffix, ok := raw.(string)
	if !ok {
		return nil, true, fmt.Errorf("%w: suffix must be a string, got %T", ErrInvalidCondition, raw)
	}
	return Suffix(suffix), true, nil
}

func regexFlags(flags string) (string, error) {
	if flags == "" {
		return "", nil
	}
	out := "(?"
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			out += string(f)
		case 'g', 'u', 'y':
			// no effect on a single test
		default:
			return "", fmt.Errorf("%w: unsupported regex flag %q", ErrInvalidCondition, f)
		}
	}
	if out == "(?" {
		return "", nil
	}
	return out + ")", nil
}
