// Package commands implements the CLI for reg.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/reg/internal/config"
	regerrors "github.com/thoreinstein/reg/internal/errors"
	"github.com/thoreinstein/reg/internal/logging"
	"github.com/thoreinstein/reg/internal/registry"
	"github.com/thoreinstein/reg/internal/scan"
	"github.com/thoreinstein/reg/internal/sink"
)

// version is set at build time via ldflags.
// Default to a development version for local builds.
const version = "0.1.0"

// fixtureEnv names an optional YAML fixture file that replaces the live
// registry, for development and testing off-Windows.
const fixtureEnv = "REG_FIXTURE"

var (
	// Scan flags.
	caseSensitive bool
	rootFlag      string
	outputFlag    string
	jsonOut       bool

	// Ambient persistent flags.
	verbosity int
	quiet     bool
	logFormat string
	logFile   string
)

// configLoadErr holds any error that occurred during config loading.
var (
	cfg           *config.Config
	configLoadErr error
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().BoolVarP(&caseSensitive, "case-sensitive", "c", false,
		"perform case-sensitive matching")
	rootCmd.Flags().StringVarP(&rootFlag, "root", "r", "",
		"scan only this root (default: all five), e.g. HKEY_LOCAL_MACHINE or HKLM")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "",
		"append results to this file in addition to stdout")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false,
		"emit one JSON object per match instead of text lines")

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("reg version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	cfg, configLoadErr = config.Load("")
}

var rootCmd = &cobra.Command{
	Use:   "reg <search_string>",
	Short: "Recursively search the Windows Registry",
	Long: `reg recursively scans the Windows Registry from the five well-known
roots and reports every key name, value name, or value data containing
the search string.

Matching is a case-insensitive substring test by default; pass -c for
exact case. An empty search string matches every key and value, which
enumerates the whole store. Subtrees that deny access are skipped with
a warning and never abort the scan.

Results go to standard output (and, with -o, are appended to a file);
warnings go to standard error.`,
	Example: `  # Find everything mentioning .dll
  reg .dll

  # Case-sensitive, one root only
  reg BitLocker -c -r HKEY_LOCAL_MACHINE

  # Keep a copy of the results
  reg bitlocker -o results.txt`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	RunE: runScan,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return regerrors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}
	if configLoadErr != nil {
		return regerrors.NewUserError(configLoadErr, "fix or remove the config file")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		level = logging.LevelFromVerbosity(verbosity)
	}

	format := logFormat
	if format == "" && cfg != nil {
		format = cfg.LogFormat
	}

	opts := &slog.HandlerOptions{Level: level}

	var primaryHandler slog.Handler
	switch logging.Format(format) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return regerrors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())
	pattern := args[0]

	// Config supplies defaults for flags the user did not pass.
	if cfg != nil {
		if !cmd.Flags().Changed("case-sensitive") {
			caseSensitive = cfg.CaseSensitive
		}
		if !cmd.Flags().Changed("output") && cfg.Output != "" {
			outputFlag = cfg.Output
		}
	}

	opts := scan.Options{
		Pattern:       pattern,
		CaseSensitive: caseSensitive,
	}
	if rootFlag != "" {
		root, err := registry.ParseRoot(rootFlag)
		if err != nil {
			return regerrors.NewUserError(err,
				"valid roots: "+strings.Join(registry.RootNames(), ", "))
		}
		opts.Roots = []registry.Root{root}
	}

	store, err := newStore()
	if err != nil {
		return regerrors.NewUserError(err, "check "+fixtureEnv)
	}

	out, err := sink.New(sink.Options{
		Out:    cmd.OutOrStdout(),
		Path:   outputFlag,
		JSON:   jsonOut,
		Logger: logger,
	})
	if err != nil {
		return regerrors.NewUserError(err, "check the -o path is writable")
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("scan starting", "pattern", pattern, "case_sensitive", caseSensitive)

	scanner := scan.NewScannerWithLogger(store, logger)
	stats, err := scanner.Run(ctx, opts, out.Write)
	switch {
	case errors.Is(err, regerrors.ErrNoRoots):
		return regerrors.NewSystemError(err, "no registry root could be opened on this system")
	case errors.Is(err, context.Canceled):
		return regerrors.NewUserError(errors.New("scan interrupted"), "")
	case err != nil:
		return errors.Wrap(err, "scanning registry")
	}

	logger.Info("scan complete",
		"matches", out.Count(),
		"keys", stats.Keys,
		"skipped_subtrees", stats.Skipped,
		"roots", stats.Roots)

	return nil
}

// newStore selects the live registry, or a YAML fixture when
// REG_FIXTURE points at one.
func newStore() (registry.Store, error) {
	if path := os.Getenv(fixtureEnv); path != "" {
		return registry.LoadFixtureFile(path)
	}
	return registry.NewSysStore(), nil
}
