package esbuildhost

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klyr/sfcroute/internal/compiler"
	"github.com/klyr/sfcroute/internal/config"
	"github.com/klyr/sfcroute/internal/errors"
	"github.com/klyr/sfcroute/internal/plugin"
)

func appendStep(tag string) StepFunc {
	return func(ctx *Context, source string) (string, error) {
		return source + "|" + tag, nil
	}
}

func rewrittenHost(t *testing.T) *plugin.Host {
	t.Helper()
	host := &plugin.Host{RawRules: []config.Rule{
		{Test: regexp.MustCompile(`\.js$`), Use: "babel-loader"},
		{Test: regexp.MustCompile(`\.vue$`), Use: "vue-loader"},
		{Test: regexp.MustCompile(`\.css$`), Use: []string{"style-loader", "css-loader"}},
	}}
	l := zerolog.Nop()
	_, err := plugin.New(plugin.Options{Probe: compiler.Static{Is27: true}, Logger: &l}).Apply(host)
	require.NoError(t, err)
	return host
}

func steps() map[string]StepFunc {
	return map[string]StepFunc{
		"babel-loader":                appendStep("babel"),
		"vue-loader":                  RequireRewrite(appendStep("vue")),
		"style-loader":                appendStep("style"),
		"css-loader":                  appendStep("css"),
		plugin.DefaultTemplateLoader:  appendStep("template"),
		plugin.DefaultStylePostLoader: appendStep("style-post"),
	}
}

func TestRunAppliesChainRightToLeft(t *testing.T) {
	host := rewrittenHost(t)

	out, ok, err := Run(host, steps(), "src/app.css", "", "src")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "src|style-post|css|style", out)

	out, ok, err = Run(host, steps(), "src/Widget.vue", "?vue&type=template", "tpl")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tpl|vue|template|babel", out)
}

func TestRunPassesThroughUnmatched(t *testing.T) {
	out, ok, err := Run(rewrittenHost(t), steps(), "logo.svg", "", "<svg/>")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "<svg/>", out)
}

func TestRunUnknownLoader(t *testing.T) {
	s := steps()
	delete(s, "babel-loader")

	_, _, err := Run(rewrittenHost(t), s, "src/main.js", "", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no step registered for loader "babel-loader"`)
}

func TestSplitStepRequiresRewrite(t *testing.T) {
	host := rewrittenHost(t)
	bare := &plugin.Host{Rules: host.Rules}

	_, _, err := Run(bare, steps(), "src/Widget.vue", "", "x")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfiguration))
}

func TestPluginInBuild(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(entry, []byte("export default 1\n"), 0o600))

	s := steps()
	s["babel-loader"] = func(ctx *Context, source string) (string, error) {
		return source + "export const touched = " + `"` + ctx.Step.Loader + `"` + "\n", nil
	}

	result := api.Build(api.BuildOptions{
		EntryPoints: []string{entry},
		Bundle:      true,
		Format:      api.FormatESModule,
		Write:       false,
		Plugins:     []api.Plugin{Plugin(rewrittenHost(t), s, Options{})},
	})
	require.Empty(t, result.Errors)
	require.Len(t, result.OutputFiles, 1)
	assert.True(t, strings.Contains(string(result.OutputFiles[0].Contents), `touched = "babel-loader"`))
}
