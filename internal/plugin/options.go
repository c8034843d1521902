package plugin

import (
	"regexp"

	"github.com/rs/zerolog"

	"github.com/klyr/sfcroute/internal/compiler"
	"github.com/klyr/sfcroute/internal/config"
	"github.com/klyr/sfcroute/internal/logging"
	"github.com/klyr/sfcroute/internal/observability"
)

const (
	DefaultExtension         = "vue"
	DefaultFallbackExtension = "vue.html"
	// OptionsIdent tags the split step so other steps can reference its
	// options object instead of a copy.
	OptionsIdent           = "vue-loader-options"
	DefaultQueryMarker     = "vue"
	DefaultTemplateLoader  = "sfcroute/template-loader"
	DefaultStylePostLoader = "sfcroute/style-post-loader"
	DefaultCSSLoader       = "css-loader"
)

// DefaultSplitLoader matches the split step by name, installed plain,
// scoped or through a path.
var DefaultSplitLoader = regexp.MustCompile(`^vue-loader|(/|\\|@)vue-loader`)

// Options configures a rewrite pass. Zero fields take the defaults above.
type Options struct {
	Extension         string
	FallbackExtension string
	QueryMarker       string
	Ident             string
	SplitLoader       *regexp.Regexp
	TemplateLoader    string
	StylePostLoader   string
	CSSLoader         string

	Probe   compiler.Probe
	Logger  *zerolog.Logger
	Trace   *logging.TraceLogger
	Metrics *observability.Metrics
}

func (o *Options) applyDefaults() {
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	if o.FallbackExtension == "" {
		o.FallbackExtension = DefaultFallbackExtension
	}
	if o.QueryMarker == "" {
		o.QueryMarker = DefaultQueryMarker
	}
	if o.Ident == "" {
		o.Ident = OptionsIdent
	}
	if o.SplitLoader == nil {
		o.SplitLoader = DefaultSplitLoader
	}
	if o.TemplateLoader == "" {
		o.TemplateLoader = DefaultTemplateLoader
	}
	if o.StylePostLoader == "" {
		o.StylePostLoader = DefaultStylePostLoader
	}
	if o.CSSLoader == "" {
		o.CSSLoader = DefaultCSSLoader
	}
	if o.Probe == nil {
		o.Probe = compiler.PackageProbe{}
	}
	if o.Logger == nil {
		l := logging.GetLogger("plugin")
		o.Logger = &l
	}
}

// OptionsFromConfig maps the plugin section of a rules file onto Options.
func OptionsFromConfig(cfg config.PluginConfig) Options {
	return Options{
		Extension:         cfg.Extension,
		FallbackExtension: cfg.FallbackExtension,
		TemplateLoader:    cfg.TemplateLoader,
		StylePostLoader:   cfg.StylePostLoader,
		CSSLoader:         cfg.CSSLoader,
		Probe:             compiler.FromSetting(cfg.Compiler),
	}
}
