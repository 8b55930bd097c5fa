package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/objgraph/internal/rules"
	"github.com/spf13/cobra"
)

func newRulesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [paths...]",
		Short: "Print the merged rule table as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer a.Close()

			body, err := rules.EncodeTable(a.Rules())
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, body, "", "  "); err != nil {
				return err
			}
			out.WriteByte('\n')
			_, err = opts.outW.Write(out.Bytes())
			return err
		},
	}
}

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check every rule against the compiled-in types",
		Long:  "Reports rules whose target is unknown or not instantiable, missing static factories and missing post-construction methods. Exits with code 1 when any problem is found.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer a.Close()

			problems := a.Check()
			if len(problems) == 0 {
				fmt.Fprintf(opts.outW, "OK: %d rules checked\n", len(a.Rules()))
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(opts.outW, "ERROR: %s\n", p)
			}
			return &ExitError{Code: 1, Message: fmt.Sprintf("%d problem(s) found", len(problems))}
		},
	}
}

func newResolveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name> [paths...]",
		Short: "Build the instance for a name and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), args[1:])
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.Resolve(args[0])
			if err != nil {
				return err
			}
			if s, ok := v.(fmt.Stringer); ok {
				fmt.Fprintf(opts.outW, "%s\n", s.String())
			} else {
				fmt.Fprintf(opts.outW, "%+v\n", v)
			}
			return nil
		},
	}
}

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Serve the read-only inspection API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.newApp(ctx, args)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().IntVar(&opts.cfg.Port, "port", opts.cfg.Port, "Port for the inspection server.")
	return cmd
}
