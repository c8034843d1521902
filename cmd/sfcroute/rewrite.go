package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/klyr/sfcroute/internal/config"
	"github.com/klyr/sfcroute/internal/logging"
	"github.com/klyr/sfcroute/internal/observability"
	"github.com/klyr/sfcroute/internal/plugin"
	"github.com/klyr/sfcroute/internal/report"
)

type passFlags struct {
	configPath      string
	compiler        string
	tracePath       string
	metricsTextfile string
}

func (f *passFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to rules file")
	cmd.Flags().StringVar(&f.compiler, "compiler", "", "Template compiler: auto|2.6|2.7 (overrides plugin.compiler)")
	cmd.Flags().StringVar(&f.tracePath, "trace", "", "Append pass events as JSONL to this file (overrides logging.trace)")
	cmd.Flags().StringVar(&f.metricsTextfile, "metrics-textfile", "", "Write pass metrics in Prometheus text format (overrides metrics.textfile)")
}

// runPass loads and validates the rules file and applies one rewrite pass.
func runPass(f *passFlags, verbosity int, stderr io.Writer) (*plugin.Host, *plugin.Result, error) {
	if f.configPath == "" {
		return nil, nil, errors.New("config path is required")
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.compiler != "" {
		cfg.Plugin.Compiler = f.compiler
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logging.SetupLogger(logging.LevelFor(verbosity, cfg.Logging.Level), stderr)

	opts := plugin.OptionsFromConfig(cfg.Plugin)

	tracePath := f.tracePath
	if tracePath == "" && cfg.Logging.Trace != "" {
		tracePath = cfg.ResolvePath(cfg.Logging.Trace)
	}
	if tracePath != "" {
		trace, closer, err := logging.OpenTrace(tracePath)
		if err != nil {
			return nil, nil, err
		}
		defer func() { _ = closer() }()
		opts.Trace = trace
	}

	textfile := f.metricsTextfile
	if textfile == "" && cfg.Metrics.Textfile != "" {
		textfile = cfg.ResolvePath(cfg.Metrics.Textfile)
	}
	var reg *prometheus.Registry
	if textfile != "" {
		reg = prometheus.NewRegistry()
		opts.Metrics = observability.NewMetrics(reg)
	}

	host := &plugin.Host{Context: cfg.ContextDir(), RawRules: cfg.Module.Rules}
	res, applyErr := plugin.New(opts).Apply(host)

	if reg != nil {
		if err := observability.WriteTextfile(textfile, reg); err != nil && applyErr == nil {
			return nil, nil, fmt.Errorf("write metrics: %w", err)
		}
	}
	if applyErr != nil {
		return nil, nil, applyErr
	}
	return host, res, nil
}

func newRewriteCmd(verbosity *int) *cobra.Command {
	var flags passFlags
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite the module rules of a rules file and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := runPass(&flags, *verbosity, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "", "yaml":
				data, err = yaml.Marshal(map[string]any{"rules": res.Describe()})
			case "json":
				data, err = json.MarshalIndent(map[string]any{"rules": res.Describe()}, "", "  ")
				data = append(data, '\n')
			case "text":
				data = []byte(report.RenderText(report.Summarize(res)))
			case "md":
				data = []byte(report.RenderMarkdown(report.Summarize(res)))
			case "summary-json":
				data, err = report.RenderJSON(report.Summarize(res))
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return report.WriteOutput(outPath, data)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml|json|text|md|summary-json")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file path (default stdout)")

	return cmd
}
