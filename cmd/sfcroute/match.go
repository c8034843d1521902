package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klyr/sfcroute/internal/resource"
	"github.com/klyr/sfcroute/internal/rules"
)

func newMatchCmd(verbosity *int) *cobra.Command {
	var flags passFlags

	cmd := &cobra.Command{
		Use:     "match <request>...",
		Short:   "Show the step chain each request receives from the rewritten rules",
		Example: `  sfcroute match -c rules.yaml src/App.vue 'src/App.vue?vue&type=template'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("at least one request is required")
			}
			_, res, err := runPass(&flags, *verbosity, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, request := range args {
				path, query := resource.SplitRequest(request)
				path = resource.CleanPath(path)
				chain := rules.Chain(res.Rules, path, query)

				names := make([]string, len(chain))
				for i, step := range chain {
					names[i] = step.Loader
				}
				if len(names) == 0 {
					names = append(names, "(none)")
				}
				if _, err := fmt.Fprintf(out, "%s%s: %s\n", path, query, strings.Join(names, " ! ")); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
