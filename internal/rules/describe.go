package rules

// Description is a serialisable view of a rule tree. Conditions are
// rendered in their String form.
type Description struct {
	Resource      string            `yaml:"resource,omitempty" json:"resource,omitempty"`
	ResourceQuery string            `yaml:"resourceQuery,omitempty" json:"resourceQuery,omitempty"`
	Request       string            `yaml:"request,omitempty" json:"request,omitempty"`
	Enforce       string            `yaml:"enforce,omitempty" json:"enforce,omitempty"`
	Use           []StepDescription `yaml:"use,omitempty" json:"use,omitempty"`
	Rules         []Description     `yaml:"rules,omitempty" json:"rules,omitempty"`
	OneOf         []Description     `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
	Extra         map[string]any    `yaml:"extra,omitempty" json:"extra,omitempty"`
}

type StepDescription struct {
	Loader  string         `yaml:"loader" json:"loader"`
	Ident   string         `yaml:"ident,omitempty" json:"ident,omitempty"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

func Describe(rules []*Rule) []Description {
	if len(rules) == 0 {
		return nil
	}
	out := make([]Description, len(rules))
	for i, r := range rules {
		out[i] = DescribeRule(r)
	}
	return out
}

func DescribeRule(r *Rule) Description {
	d := Description{
		Enforce: string(r.Enforce),
		Rules:   Describe(r.Rules),
		OneOf:   Describe(r.OneOf),
		Extra:   r.Extra,
	}
	if r.Resource != nil {
		d.Resource = r.Resource.String()
	}
	if r.ResourceQuery != nil {
		d.ResourceQuery = r.ResourceQuery.String()
	}
	if r.Request != nil {
		d.Request = r.Request.String()
	}
	for _, s := range r.Use {
		sd := StepDescription{Loader: s.Loader, Ident: s.Ident}
		if s.Options != nil && s.Options.Len() > 0 {
			sd.Options = s.Options.Snapshot()
		}
		d.Use = append(d.Use, sd)
	}
	return d
}
