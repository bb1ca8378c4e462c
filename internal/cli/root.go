// Package cli is the rpick command line: flag parsing, config layering and
// writing the accepted records.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kk-code-lab/rpick/internal/app"
	"github.com/kk-code-lab/rpick/internal/config"
	"github.com/kk-code-lab/rpick/internal/logging"
)

// Exit codes. An abort exits with the code given to Quit.
const (
	exitSuccess = 0
	exitFailure = 2
)

// request is everything one picker run needs.
type request struct {
	resolved *config.Resolved
	input    io.Reader
	output   io.Writer
	logger   *slog.Logger
}

type runFunc func(ctx context.Context, req request) (app.Result, error)

func runPicker(ctx context.Context, req request) (app.Result, error) {
	opts := []app.Option{
		app.WithConfig(req.resolved),
		app.WithOutput(req.output),
		app.WithLogger(req.logger),
	}
	if req.input != nil {
		opts = append(opts, app.WithInput(req.input))
	}
	return app.Run(ctx, opts...)
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice == 0
}

// env is the process surface the command reads, replaced in tests.
type env struct {
	stdin  io.Reader
	getenv func(string) string
	piped  func() bool
	run    runFunc
}

type flags struct {
	config      string
	query       string
	prompt      string
	header      string
	footer      string
	delimiter   string
	withNames   string
	nth         string
	previews    []string
	layouts     []string
	binds       []string
	select1     bool
	allowEmpty  bool
	print0      bool
	printQuery  bool
	output      string
	source      string
	historyFile string
}

func newRootCmd(e env) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "rpick",
		Short: "interactive fuzzy picker for lines of text",
		Long: `rpick reads lines from stdin, or from a source command when stdin is a
terminal, and lets you filter and pick them interactively. Picked lines are
written to stdout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return pick(cmd, e, &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "config file (default $XDG_CONFIG_HOME/rpick/config.toml)")
	fl.StringVarP(&f.query, "query", "q", "", "initial query")
	fl.StringVar(&f.prompt, "prompt", "", "prompt text")
	fl.StringVar(&f.header, "header", "", "header text shown above the results")
	fl.StringVar(&f.footer, "footer", "", "footer text shown below the results")
	fl.StringVarP(&f.delimiter, "delimiter", "d", "", "column delimiter (regular expression)")
	fl.StringVar(&f.withNames, "with-names", "", "comma-separated column names")
	fl.StringVar(&f.nth, "nth", "", "column to match against, by index or name")
	fl.StringArrayVar(&f.previews, "preview", nil, "preview command template (repeatable)")
	fl.StringArrayVar(&f.layouts, "preview-layout", nil, "preview layout side:pct[:min[:max]] (repeatable)")
	fl.StringArrayVar(&f.binds, "bind", nil, "key binding trigger:Action,... (repeatable)")
	fl.BoolVarP(&f.select1, "select-1", "1", false, "accept automatically when only one record matches")
	fl.BoolVar(&f.allowEmpty, "allow-empty", false, "allow accepting when nothing matches")
	fl.BoolVar(&f.print0, "print0", false, "separate output with NUL instead of newline")
	fl.BoolVar(&f.printQuery, "print-query", false, "print the query before the picked records")
	fl.StringVar(&f.output, "output", "", "output template for each picked record")
	fl.StringVar(&f.source, "source", "", "command producing records when stdin is a terminal")
	fl.StringVar(&f.historyFile, "history-file", "", "file holding query history")

	cmd.AddCommand(newVersionCmd(), newSetupCmd(e))
	return cmd
}

func pick(cmd *cobra.Command, e env, f *flags) error {
	cfg, err := config.Load(f.config, e.getenv)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg, f); err != nil {
		return err
	}
	resolved, err := cfg.Resolve(e.getenv)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.Setup(e.getenv)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "rpick: %v\n", err)
	}
	defer func() {
		_ = closeLog()
	}()

	req := request{resolved: resolved, output: cmd.OutOrStdout(), logger: logger}
	if e.piped() {
		req.input = e.stdin
	}
	logger.Debug("picker start", "stdin", req.input != nil, "source", resolved.SourceCommand)

	res, err := e.run(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), res, resolved)
}

// applyFlags layers explicitly given flags over the file values.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f *flags) error {
	changed := cmd.Flags().Changed
	if changed("query") {
		cfg.Query = f.query
	}
	if changed("prompt") {
		cfg.SetPrompt(f.prompt)
	}
	if changed("header") {
		cfg.Header = f.header
	}
	if changed("footer") {
		cfg.Footer = f.footer
	}
	if changed("delimiter") {
		cfg.Columns.Delimiter = f.delimiter
	}
	if changed("with-names") {
		cfg.Columns.Names = splitNames(f.withNames)
	}
	if changed("nth") {
		cfg.Columns.Active = f.nth
	}
	for _, p := range f.previews {
		cfg.Preview.Sources = append(cfg.Preview.Sources, config.PreviewSourceConfig{Command: p})
	}
	if len(f.layouts) > 0 {
		// Command-line layouts replace the file's cycle.
		cfg.Preview.Layouts = cfg.Preview.Layouts[:0]
		for _, spec := range f.layouts {
			lc, err := config.ParseLayout(spec)
			if err != nil {
				return &config.ConfigError{Field: "preview-layout", Err: err}
			}
			cfg.Preview.Layouts = append(cfg.Preview.Layouts, lc)
		}
	}
	cfg.ExtraBinds = append(cfg.ExtraBinds, f.binds...)
	if changed("select-1") {
		cfg.Output.Select1 = f.select1
	}
	if changed("allow-empty") {
		cfg.Output.AllowEmpty = f.allowEmpty
	}
	if changed("print0") {
		cfg.Output.Print0 = f.print0
	}
	if changed("print-query") {
		cfg.Output.PrintQuery = f.printQuery
	}
	if changed("output") {
		cfg.Output.Template = f.output
	}
	if changed("source") {
		cfg.Source.Command = f.source
	}
	if changed("history-file") {
		cfg.HistoryFile = f.historyFile
	}
	return nil
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func writeResult(w io.Writer, res app.Result, resolved *config.Resolved) error {
	sep := "\n"
	if resolved.Print0 {
		sep = "\x00"
	}
	var b strings.Builder
	if resolved.PrintQuery {
		b.WriteString(res.Query)
		b.WriteString(sep)
	}
	for _, item := range res.Items {
		b.WriteString(item)
		b.WriteString(sep)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var abort *app.AbortError
	if errors.As(err, &abort) {
		return abort.Code
	}
	return exitFailure
}

func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	var abort *app.AbortError
	if err != nil && !errors.As(err, &abort) && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(cmd.ErrOrStderr(), "rpick: %v\n", err)
	}
	return exitCode(err)
}

// Execute runs the command line and returns the exit status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(env{
		stdin:  os.Stdin,
		getenv: os.Getenv,
		piped:  stdinIsPiped,
		run:    runPicker,
	})
	return execute(ctx, cmd, os.Args[1:])
}
