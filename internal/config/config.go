package config

// Config is a rules file: the bundler module rules to rewrite plus the
// settings of the rewrite pass itself.
type Config struct {
	ConfigVersion int           `yaml:"configVersion" toml:"configVersion"`
	Context       string        `yaml:"context" toml:"context"`
	Module        ModuleConfig  `yaml:"module" toml:"module"`
	Plugin        PluginConfig  `yaml:"plugin" toml:"plugin"`
	Logging       LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics       MetricsConfig `yaml:"metrics" toml:"metrics"`

	baseDir string `yaml:"-" toml:"-"`
}

type ModuleConfig struct {
	Rules []Rule `yaml:"rules" toml:"rules"`
}

// Rule is one authored module rule. Condition fields hold raw condition
// shapes (see package condition); Use and Loaders hold raw step lists.
// Unknown keys are kept in Extra and written back unchanged.
type Rule struct {
	Test          any            `yaml:"test,omitempty" toml:"test,omitempty"`
	Include       any            `yaml:"include,omitempty" toml:"include,omitempty"`
	Exclude       any            `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	Resource      any            `yaml:"resource,omitempty" toml:"resource,omitempty"`
	ResourceQuery any            `yaml:"resourceQuery,omitempty" toml:"resourceQuery,omitempty"`
	Enforce       string         `yaml:"enforce,omitempty" toml:"enforce,omitempty"`
	Loader        string         `yaml:"loader,omitempty" toml:"loader,omitempty"`
	Options       map[string]any `yaml:"options,omitempty" toml:"options,omitempty"`
	Loaders       any            `yaml:"loaders,omitempty" toml:"loaders,omitempty"`
	Use           any            `yaml:"use,omitempty" toml:"use,omitempty"`
	Rules         []Rule         `yaml:"rules,omitempty" toml:"rules,omitempty"`
	OneOf         []Rule         `yaml:"oneOf,omitempty" toml:"oneOf,omitempty"`
	Extra         map[string]any `yaml:",inline" toml:"-"`
}

// UseEntry is the object form of one step in a raw use list.
type UseEntry struct {
	Loader  string         `yaml:"loader" toml:"loader"`
	Options map[string]any `yaml:"options,omitempty" toml:"options,omitempty"`
	Ident   string         `yaml:"ident,omitempty" toml:"ident,omitempty"`
}

type PluginConfig struct {
	Extension         string `yaml:"extension" toml:"extension"`
	FallbackExtension string `yaml:"fallbackExtension" toml:"fallbackExtension"`
	Compiler          string `yaml:"compiler" toml:"compiler"`
	TemplateLoader    string `yaml:"templateLoader" toml:"templateLoader"`
	StylePostLoader   string `yaml:"stylePostLoader" toml:"stylePostLoader"`
	CSSLoader         string `yaml:"cssLoader" toml:"cssLoader"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	Trace string `yaml:"trace" toml:"trace"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile" toml:"textfile"`
}

const (
	CompilerAuto = "auto"
	Compiler26   = "2.6"
	Compiler27   = "2.7"
)

const (
	EnforcePre  = "pre"
	EnforcePost = "post"
)

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

// Clone returns a shallow copy of r. Nested rule slices are copied, raw
// condition values are shared.
func (r Rule) Clone() Rule {
	out := r
	if r.Rules != nil {
		out.Rules = append([]Rule(nil), r.Rules...)
	}
	if r.OneOf != nil {
		out.OneOf = append([]Rule(nil), r.OneOf...)
	}
	return out
}
