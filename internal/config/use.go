package config

import (
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// Steps returns the rule's step list in authored order, resolving the
// loader/options shorthand and the use/loaders forms.
func (r Rule) Steps() ([]UseEntry, error) {
	switch {
	case r.Loader != "":
		entries, err := parseUseString(r.Loader)
		if err != nil {
			return nil, err
		}
		if r.Options != nil {
			if len(entries) != 1 {
				return nil, fmt.Errorf("options cannot be applied to a chained loader %q", r.Loader)
			}
			entries[0].Options = r.Options
		}
		return entries, nil
	case r.Use != nil:
		return ParseUse(r.Use)
	case r.Loaders != nil:
		return ParseUse(r.Loaders)
	default:
		return nil, nil
	}
}

// ParseUse resolves a raw use value: a string ("a!b?x=1"), an object
// {loader, options, ident}, or a list of either.
func ParseUse(raw any) ([]UseEntry, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return parseUseString(v)
	case UseEntry:
		return []UseEntry{v}, nil
	case []UseEntry:
		return append([]UseEntry(nil), v...), nil
	case []string:
		var out []UseEntry
		for _, s := range v {
			entries, err := parseUseString(s)
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
		}
		return out, nil
	case map[string]any:
		entry, err := parseUseObject(v)
		if err != nil {
			return nil, err
		}
		return []UseEntry{entry}, nil
	case []any:
		var out []UseEntry
		for i, item := range v {
			entries, err := ParseUse(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, entries...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected %T in use", raw)
	}
}

func parseUseString(s string) ([]UseEntry, error) {
	var out []UseEntry
	for _, part := range strings.Split(s, "!") {
		if part == "" {
			continue
		}
		loader, query, hasQuery := strings.Cut(part, "?")
		if loader == "" {
			return nil, fmt.Errorf("empty loader name in %q", s)
		}
		entry := UseEntry{Loader: loader}
		if hasQuery {
			opts, err := parseInlineOptions(query)
			if err != nil {
				return nil, fmt.Errorf("loader %q: %w", loader, err)
			}
			entry.Options = opts
		}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty use string")
	}
	return out, nil
}

// parseInlineOptions decodes "?{json}" or "?a=1&b" options.
func parseInlineOptions(query string) (map[string]any, error) {
	if strings.HasPrefix(query, "{") {
		var opts map[string]any
		if err := yaml.Unmarshal([]byte(query), &opts); err != nil {
			return nil, fmt.Errorf("inline options: %w", err)
		}
		return opts, nil
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("inline options: %w", err)
	}
	opts := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			opts[k] = vals[0]
			continue
		}
		list := make([]any, len(vals))
		for i, val := range vals {
			list[i] = val
		}
		opts[k] = list
	}
	return opts, nil
}

func parseUseObject(obj map[string]any) (UseEntry, error) {
	var entry UseEntry
	for key, value := range obj {
		switch key {
		case "loader":
			s, ok := value.(string)
			if !ok {
				return UseEntry{}, fmt.Errorf("loader must be a string, got %T", value)
			}
			entry.Loader = s
		case "ident":
			s, ok := value.(string)
			if !ok {
				return UseEntry{}, fmt.Errorf("ident must be a string, got %T", value)
			}
			entry.Ident = s
		case "options", "query":
			switch o := value.(type) {
			case nil:
			case map[string]any:
				entry.Options = o
			case string:
				opts, err := parseInlineOptions(o)
				if err != nil {
					return UseEntry{}, err
				}
				entry.Options = opts
			default:
				return UseEntry{}, fmt.Errorf("%s must be an object or string, got %T", key, value)
			}
		default:
			return UseEntry{}, fmt.Errorf("unexpected property %q in use entry", key)
		}
	}
	if entry.Loader == "" {
		return UseEntry{}, fmt.Errorf("use entry without loader")
	}
	if strings.Contains(entry.Loader, "!") {
		return UseEntry{}, fmt.Errorf("use entry loader %q must not chain with '!'", entry.Loader)
	}
	return entry, nil
}
