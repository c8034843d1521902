package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const rulesFile = `configVersion: 1
module:
  rules:
    - test: {regex: '\.js$'}
      use: babel-loader
    - test: {regex: '\.vue$'}
      loader: vue-loader
      options:
        hotReload: false
    - test: {regex: '\.css$'}
      use: [style-loader, css-loader]
plugin:
  compiler: "2.6"
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeRules(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(rulesFile), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "-c", writeRules(t))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if strings.TrimSpace(out) != "config ok" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRewriteCommand(t *testing.T) {
	path := writeRules(t)
	metrics := filepath.Join(filepath.Dir(path), "metrics.prom")

	out, err := execute(t, "rewrite", "-c", path, "--compiler", "2.7", "--format", "json", "--metrics-textfile", metrics)
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	for _, want := range []string{`"sfcroute/template-loader"`, `"vue-loader-options"`, `"sfcroute/style-post-loader"`, `"hotReload": false`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %s:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `sfcroute_passes_total{result="ok"} 1`) {
		t.Fatalf("metrics missing pass counter:\n%s", data)
	}
}

func TestRewriteCommandSummary(t *testing.T) {
	out, err := execute(t, "rewrite", "-c", writeRules(t), "--format", "text")
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if !strings.Contains(out, "Owner: rules[1] (.vue) via vue-loader") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "render function routing: off") {
		t.Fatalf("expected routing off for 2.6:\n%s", out)
	}
}

func TestMatchCommand(t *testing.T) {
	out, err := execute(t, "match", "-c", writeRules(t), "--compiler", "2.7",
		"src/App.vue?vue&type=template", "src/main.js", "logo.svg")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		"src/App.vue?vue&type=template: babel-loader ! sfcroute/template-loader ! vue-loader",
		"src/main.js: babel-loader",
		"logo.svg: (none)",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected match output:\n%s", out)
	}
}

func TestRewriteMissingOwnershipRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "configVersion: 1\nmodule:\n  rules:\n    - test: {regex: '\\.js$'}\n      use: babel-loader\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	_, err := execute(t, "rewrite", "-c", path)
	if err == nil || !strings.Contains(err.Error(), "MISSING_OWNERSHIP_RULE") {
		t.Fatalf("expected missing ownership rule, got %v", err)
	}
}
