package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/objgraph/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// options collects the flag values shared by every command.
type options struct {
	cfg  app.Config
	outW io.Writer
	errW io.Writer
}

// Execute runs the objgraph command line with args. Command output goes to
// outW, logs go to errW.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the objgraph command tree. Flag defaults come from
// the environment, after .env has been loaded.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	app.LoadEnv()
	opts := &options{cfg: app.ConfigFromEnv(), outW: outW, errW: errW}

	root := &cobra.Command{
		Use:   "objgraph",
		Short: "Build object graphs from declarative construction rules",
		Long: `objgraph loads construction rules from HCL, HCL JSON and YAML files and
resolves names against the Go types compiled into the binary.

Rule paths may be given with --rules, as trailing arguments, or through
OBJGRAPH_RULES.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringSliceVar(&opts.cfg.RulePaths, "rules", opts.cfg.RulePaths, "Rule files or directories (comma separated).")
	flags.StringVar(&opts.cfg.CachePath, "cache", opts.cfg.CachePath, "Path to the SQLite rule cache. Empty keeps the cache in memory.")
	flags.StringVar(&opts.cfg.InheritPolicy, "inherit-policy", opts.cfg.InheritPolicy, "Rule inheritance policy: 'explicit' or 'unless-false'.")
	flags.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.cfg.LogFormat, "log-format", opts.cfg.LogFormat, "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newRulesCommand(opts),
		newCheckCommand(opts),
		newResolveCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// newApp validates the collected configuration, appending extra rule paths,
// and builds the application.
func (o *options) newApp(ctx context.Context, extraPaths []string) (*app.App, error) {
	cfg := o.cfg
	cfg.RulePaths = append(append([]string(nil), cfg.RulePaths...), extraPaths...)

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	a, err := app.New(ctx, o.errW, validated)
	if err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	return a, nil
}
