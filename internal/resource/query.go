package resource

import (
	"net/url"
	"strings"
)

// Query is a parsed resource query. Keys without a value ("?vue") are
// present with an empty value.
type Query struct {
	values url.Values
}

// ParseQuery parses a resource query with or without its leading "?".
// Malformed escapes are kept verbatim instead of failing the parse.
func ParseQuery(raw string) Query {
	raw = strings.TrimPrefix(raw, "?")
	values := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		values.Add(decode(key), decode(value))
	}
	return Query{values: values}
}

func decode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func (q Query) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

func (q Query) Get(key string) string {
	return q.values.Get(key)
}

// Truthy reports whether key is present with a non-empty value.
func (q Query) Truthy(key string) bool {
	return q.values.Get(key) != ""
}

// BlockType names the embedded sub-language a virtual module carries.
type BlockType string

const (
	BlockTemplate BlockType = "template"
	BlockScript   BlockType = "script"
	BlockStyle    BlockType = "style"
	BlockCustom   BlockType = "custom"
)

// Block describes a virtual module request.
type Block struct {
	Type BlockType
	// TS selects the typed output flavor of a compiled template.
	TS   bool
	Lang string
}

// ParseBlock reads a virtual module reference from query. ok is false when
// the marker key is absent, i.e. the request is not a virtual module.
func ParseBlock(query, marker string) (Block, bool) {
	q := ParseQuery(query)
	if !q.Has(marker) {
		return Block{}, false
	}
	return Block{
		Type: BlockType(q.Get("type")),
		TS:   q.Truthy("ts"),
		Lang: q.Get("lang"),
	}, true
}

// FormatBlock builds the query for a virtual module, leading "?" included.
func FormatBlock(marker string, b Block) string {
	var sb strings.Builder
	sb.WriteString("?")
	sb.WriteString(url.QueryEscape(marker))
	if b.Type != "" {
		sb.WriteString("&type=")
		sb.WriteString(url.QueryEscape(string(b.Type)))
	}
	if b.Lang != "" {
		sb.WriteString("&lang=")
		sb.WriteString(url.QueryEscape(b.Lang))
	}
	if b.TS {
		sb.WriteString("&ts=true")
	}
	return sb.String()
}
