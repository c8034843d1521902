package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klyr/sfcroute/internal/logging"
	"github.com/klyr/sfcroute/internal/plugin"
)

type Summary struct {
	Owner      OwnerSummary   `json:"owner"`
	Compiler   string         `json:"compiler"`
	RenderFn   bool           `json:"render_fn"`
	Clones     []CloneSummary `json:"clones"`
	Spliced    int            `json:"spliced"`
	Order      []string       `json:"order"`
	Warnings   []string       `json:"warnings"`
	DurationMS float64        `json:"duration_ms"`
}

type OwnerSummary struct {
	Index     int    `json:"index"`
	Extension string `json:"extension"`
	Loader    string `json:"loader"`
	Ident     string `json:"ident"`
}

type CloneSummary struct {
	Source  int      `json:"source"`
	Loaders []string `json:"loaders"`
	Match   string   `json:"match"`
}

// Summarize describes a successful pass.
func Summarize(res *plugin.Result) Summary {
	var summary Summary
	if res == nil {
		return summary
	}

	if loc := res.Location; loc != nil {
		summary.Owner = OwnerSummary{Index: loc.Index, Extension: loc.Extension}
		if loc.Step != nil {
			summary.Owner.Loader = loc.Step.Loader
			summary.Owner.Ident = loc.Step.Ident
		}
	}
	summary.Compiler = res.Flavor.Version
	if summary.Compiler == "" {
		summary.Compiler = "unknown"
	}
	summary.Spliced = res.Spliced
	summary.Warnings = res.Warnings
	summary.DurationMS = float64(res.Duration) / float64(time.Millisecond)

	syn := res.Synthetic
	if syn == nil {
		return summary
	}
	summary.RenderFn = syn.TemplateRule != nil

	for i, clone := range syn.Clones {
		item := CloneSummary{Source: syn.CloneSources[i]}
		for _, step := range clone.Use {
			item.Loaders = append(item.Loaders, step.Loader)
		}
		if clone.Request != nil {
			item.Match = clone.Request.String()
		}
		summary.Clones = append(summary.Clones, item)
	}

	for _, c := range summary.Clones {
		summary.Order = append(summary.Order, fmt.Sprintf("clone of rules[%d]", c.Source))
	}
	if summary.RenderFn {
		summary.Order = append(summary.Order, "template")
	}
	offset := len(summary.Order)
	for i := offset; i < len(res.Rules); i++ {
		label := fmt.Sprintf("rules[%d]", i-offset)
		if res.Location != nil && i-offset == res.Location.Index {
			label += " (owner)"
		}
		summary.Order = append(summary.Order, label)
	}

	return summary
}

// TraceSummary aggregates trace events over many passes.
type TraceSummary struct {
	Passes    int         `json:"passes"`
	Failures  int         `json:"failures"`
	Start     time.Time   `json:"start"`
	End       time.Time   `json:"end"`
	TopClones []CountItem `json:"top_clones"`
	TopErrors []CountItem `json:"top_errors"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]logging.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var events []logging.Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e logging.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, err
		}
		if !r.Since.IsZero() && e.Timestamp.Before(r.Since) {
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// SummarizeTrace counts passes by their terminal events: a located owner
// starts a pass, an error event ends it.
func SummarizeTrace(events []logging.Event) TraceSummary {
	var summary TraceSummary
	if len(events) == 0 {
		return summary
	}

	summary.Start = events[0].Timestamp
	summary.End = events[0].Timestamp

	cloneCounts := map[string]int{}
	errorCounts := map[string]int{}

	for _, e := range events {
		if e.Timestamp.Before(summary.Start) {
			summary.Start = e.Timestamp
		}
		if e.Timestamp.After(summary.End) {
			summary.End = e.Timestamp
		}

		switch {
		case e.Stage == "splice":
			summary.Passes++
		case e.Action == "error":
			summary.Passes++
			summary.Failures++
			errorCounts[e.Stage]++
		case e.Stage == "build" && e.Action == "clone":
			cloneCounts[e.Rule]++
		}
	}

	summary.TopClones = topCounts(cloneCounts, 5)
	summary.TopErrors = topCounts(errorCounts, 5)
	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

func RenderText(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Owner: rules[%d] (.%s) via %s\n", summary.Owner.Index, summary.Owner.Extension, summary.Owner.Loader)
	fmt.Fprintf(&b, "Options ident: %s\n", summary.Owner.Ident)
	fmt.Fprintf(&b, "Compiler: %s (render function routing: %s)\n", summary.Compiler, onOff(summary.RenderFn))
	fmt.Fprintf(&b, "Style post steps inserted: %d\n", summary.Spliced)
	fmt.Fprintf(&b, "Took: %.2fms\n", summary.DurationMS)

	if len(summary.Clones) == 0 {
		b.WriteString("Clones: none\n")
	} else {
		b.WriteString("Clones:\n")
		for _, c := range summary.Clones {
			fmt.Fprintf(&b, "- rules[%d]: %s\n", c.Source, strings.Join(c.Loaders, ", "))
		}
	}

	b.WriteString("Order:\n")
	for i, label := range summary.Order {
		fmt.Fprintf(&b, "%3d  %s\n", i, label)
	}

	writeList(&b, "Warnings", summary.Warnings)
	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# Rule Rewrite Report\n\n")
	b.WriteString("## Ownership\n\n")
	fmt.Fprintf(&b, "- Rule: `rules[%d]`\n", summary.Owner.Index)
	fmt.Fprintf(&b, "- Extension: `.%s`\n", summary.Owner.Extension)
	fmt.Fprintf(&b, "- Split step: `%s` (ident `%s`)\n", summary.Owner.Loader, summary.Owner.Ident)
	fmt.Fprintf(&b, "- Compiler: %s, render function routing %s\n", summary.Compiler, onOff(summary.RenderFn))
	fmt.Fprintf(&b, "- Style post steps inserted: %d\n\n", summary.Spliced)

	b.WriteString("## Clones\n\n")
	if len(summary.Clones) == 0 {
		b.WriteString("- none\n\n")
	} else {
		b.WriteString("| Source | Loaders | Match |\n|---|---|---|\n")
		for _, c := range summary.Clones {
			fmt.Fprintf(&b, "| rules[%d] | %s | `%s` |\n", c.Source, strings.Join(c.Loaders, ", "), c.Match)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Final order\n\n")
	for i, label := range summary.Order {
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}
	b.WriteString("\n")

	b.WriteString("## Warnings\n\n")
	if len(summary.Warnings) == 0 {
		b.WriteString("- none\n")
	}
	for _, w := range summary.Warnings {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	return b.String()
}

func RenderJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func RenderTraceText(summary TraceSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Passes: %d\n", summary.Passes)
	fmt.Fprintf(&b, "Failures: %d\n", summary.Failures)
	writeCounts(&b, "Most cloned rules", summary.TopClones)
	writeCounts(&b, "Failing stages", summary.TopErrors)
	return b.String()
}

func writeCounts(b *strings.Builder, title string, items []CountItem) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func WriteOutput(path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o600)
}
