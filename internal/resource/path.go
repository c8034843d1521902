package resource

import "strings"

// CleanPath converts a file path into the slash separated form rules are
// matched against: backslashes become slashes, "." and ".." segments are
// resolved, duplicate separators dropped. A leading slash and a trailing
// slash are kept.
func CleanPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if path == "" {
		return "/"
	}

	leading := strings.HasPrefix(path, "/")
	trailing := strings.HasSuffix(path, "/") && path != "/"

	parts := strings.Split(path, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}

	var b strings.Builder
	if leading {
		b.WriteString("/")
	}
	b.WriteString(strings.Join(stack, "/"))
	if trailing && b.Len() > 1 {
		b.WriteString("/")
	}

	out := b.String()
	if out == "" {
		return "/"
	}
	return out
}

// SplitRequest separates "path?query" into the path and the query with its
// leading "?". A request without "?" has an empty query.
func SplitRequest(request string) (string, string) {
	if i := strings.IndexByte(request, '?'); i >= 0 {
		return request[:i], request[i:]
	}
	return request, ""
}

// Representative returns the fabricated file name used to probe which rule
// would handle files with extension ext.
func Representative(ext string) string {
	return "foo." + strings.TrimPrefix(ext, ".")
}

// LogicProbe is the fabricated file name used to find rules for plain
// script files.
const LogicProbe = "test.js"

// RenderFnPath is the path a compiled template is treated as when matched
// against script rules: the component path plus ".ts" for the typed
// flavor or ".js" otherwise.
func RenderFnPath(path string, typed bool) string {
	if typed {
		return path + ".ts"
	}
	return path + ".js"
}
