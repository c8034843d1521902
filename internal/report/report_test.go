package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klyr/sfcroute/internal/compiler"
	"github.com/klyr/sfcroute/internal/logging"
	"github.com/klyr/sfcroute/internal/plugin"
	"github.com/klyr/sfcroute/internal/rules"
)

func sampleResult() *plugin.Result {
	owner := &rules.Rule{Use: []*rules.Step{{Loader: "vue-loader", Ident: plugin.OptionsIdent}}}
	js := &rules.Rule{Use: []*rules.Step{{Loader: "babel-loader"}}}
	clone := &rules.Rule{Use: js.Use}
	template := &rules.Rule{Use: []*rules.Step{{Loader: plugin.DefaultTemplateLoader}}}

	return &plugin.Result{
		Location: &plugin.Location{Rule: owner, Index: 1, Extension: "vue", Step: owner.Use[0]},
		Flavor:   compiler.Flavor{Version: "2.7.14", Is27: true},
		Synthetic: &plugin.Synthetic{
			TemplateRule: template,
			Clones:       []*rules.Rule{clone},
			CloneSources: []int{0},
			StyleRule:    &rules.Rule{},
		},
		Spliced:  2,
		Rules:    []*rules.Rule{clone, template, js, owner},
		Warnings: []string{"rules[2] also matches .vue files"},
		Duration: 1500 * time.Microsecond,
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleResult())

	if summary.Owner.Index != 1 || summary.Owner.Loader != "vue-loader" || summary.Owner.Ident != plugin.OptionsIdent {
		t.Fatalf("unexpected owner: %+v", summary.Owner)
	}
	if !summary.RenderFn || summary.Compiler != "2.7.14" {
		t.Fatalf("expected render function routing on 2.7.14")
	}
	if len(summary.Clones) != 1 || summary.Clones[0].Source != 0 || summary.Clones[0].Loaders[0] != "babel-loader" {
		t.Fatalf("unexpected clones: %+v", summary.Clones)
	}
	want := []string{"clone of rules[0]", "template", "rules[0]", "rules[1] (owner)"}
	if strings.Join(summary.Order, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected order: %v", summary.Order)
	}
	if summary.DurationMS != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", summary.DurationMS)
	}
}

func TestSummarizeNil(t *testing.T) {
	summary := Summarize(nil)
	if summary.Spliced != 0 || len(summary.Order) != 0 {
		t.Fatalf("expected empty summary")
	}
}

func TestRenderers(t *testing.T) {
	summary := Summarize(sampleResult())

	text := RenderText(summary)
	for _, want := range []string{"Owner: rules[1] (.vue) via vue-loader", "render function routing: on", "- rules[0]: babel-loader", "Warnings:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text report missing %q:\n%s", want, text)
		}
	}

	md := RenderMarkdown(summary)
	if !strings.Contains(md, "# Rule Rewrite Report") || !strings.Contains(md, "4. rules[1] (owner)") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}

	if _, err := RenderJSON(summary); err != nil {
		t.Fatalf("expected json render ok: %v", err)
	}
}

func TestReaderAndSummarizeTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create trace: %v", err)
	}
	trace := logging.NewTraceLogger(file)
	events := []logging.Event{
		{Timestamp: time.Unix(0, 0), Stage: "locate", Action: "owner", Rule: "rules[1]"},
		{Timestamp: time.Unix(1, 0), Stage: "build", Action: "clone", Rule: "rules[0]"},
		{Timestamp: time.Unix(2, 0), Stage: "splice", Action: "insert", Detail: "1"},
		{Timestamp: time.Unix(3, 0), Stage: "locate", Action: "error", Detail: "no matching rule"},
		{Timestamp: time.Unix(4, 0), Stage: "build", Action: "clone", Rule: "rules[0]"},
		{Timestamp: time.Unix(5, 0), Stage: "splice", Action: "insert", Detail: "1"},
	}
	for _, e := range events {
		if err := trace.Write(e); err != nil {
			t.Fatalf("write event: %v", err)
		}
	}
	file.Close()

	reader := &Reader{Since: time.Unix(1, 0)}
	read, err := reader.Read(path)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if len(read) != 5 {
		t.Fatalf("expected 5 events since t=1, got %d", len(read))
	}

	summary := SummarizeTrace(read)
	if summary.Passes != 3 || summary.Failures != 1 {
		t.Fatalf("unexpected pass counts: %+v", summary)
	}
	if len(summary.TopClones) != 1 || summary.TopClones[0].Key != "rules[0]" || summary.TopClones[0].Count != 2 {
		t.Fatalf("unexpected top clones: %+v", summary.TopClones)
	}
	if len(summary.TopErrors) != 1 || summary.TopErrors[0].Key != "locate" {
		t.Fatalf("unexpected top errors: %+v", summary.TopErrors)
	}
	if !strings.Contains(RenderTraceText(summary), "Failures: 1") {
		t.Fatalf("trace text missing failures")
	}
}
