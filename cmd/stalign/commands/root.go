// Package commands implements the stalign CLI commands.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
	"github.com/Sumatoshi-tech/stalign/pkg/config"
	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/scoring"
	"github.com/Sumatoshi-tech/stalign/pkg/stree"
	"github.com/Sumatoshi-tech/stalign/pkg/ted"
	"github.com/Sumatoshi-tech/stalign/pkg/treealign"
	"github.com/Sumatoshi-tech/stalign/pkg/version"
)

// pairArgCount is the number of arguments of the two-file commands.
const pairArgCount = 2

// ErrUnsupportedFormat is returned for an unknown --format value.
var ErrUnsupportedFormat = errors.New("unsupported format")

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	costsPath  string
	verbose    bool
	quiet      bool
	logJSON    bool
	noColor    bool
}

// NewRootCommand creates the stalign root command with every subcommand.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "stalign",
		Short: "Structural trees and tree alignment for arc-annotated sequences",
		Long: `stalign builds structural trees of arc-annotated sequences (RNA secondary
structures with pseudoknots) and compares them.

Commands:
  build      Build and print the structural tree of a file
  inspect    Show the pseudoloop analyzer arrays of a file
  align      Alignment distance between two structures
  distance   Edit distance between two structures
  diff       Line diff of two structural trees
  workbench  Compare every pair of structures in a directory
  costs      Show or initialize the cost table`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is ./stalign.yaml or $HOME/.config/stalign/stalign.yaml)")
	flags.StringVarP(&opts.costsPath, "costs", "c", "", "cost file (KEY=VALUE or YAML)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log in JSON")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newBuildCommand(opts),
		newInspectCommand(opts),
		newAlignCommand(opts),
		newDistanceCommand(opts),
		newDiffCommand(opts),
		newWorkbenchCommand(opts),
		newCostsCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// session is the configured environment of one command invocation.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.StructureMetrics
	model   *scoring.Model
	close   func()
}

func newSession(cmd *cobra.Command, opts *globalOptions, mode observability.AppMode) (*session, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.quiet:
		cfg.Log.Level = config.LevelError
	case opts.verbose:
		cfg.Log.Level = config.LevelDebug
	}

	if opts.logJSON {
		cfg.Log.JSON = true
	}

	if opts.costsPath != "" {
		cfg.Costs.File = opts.costsPath
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogLevel = cfg.SlogLevel()
	obsCfg.LogJSON = cfg.Log.JSON
	obsCfg.LogWriter = cmd.ErrOrStderr()
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.DebugTrace = opts.verbose

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("observability init: %w", err)
	}

	metrics, err := observability.NewStructureMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	logger := providers.Logger

	return &session{
		cfg:     cfg,
		logger:  logger,
		tracer:  providers.Tracer,
		metrics: metrics,
		model:   scoring.NewModel(scoring.Load(cfg.Costs.File, logger)),
		close: func() {
			shutdownErr := providers.Shutdown(context.Background())
			if shutdownErr != nil {
				logger.Warn("observability shutdown failed", "error", shutdownErr)
			}
		},
	}, nil
}

// run opens a session for cmd and passes it to fn.
func run(cmd *cobra.Command, opts *globalOptions, mode observability.AppMode, fn func(context.Context, *session) error) error {
	sess, err := newSession(cmd, opts, mode)
	if err != nil {
		return err
	}
	defer sess.close()

	return fn(cmd.Context(), sess)
}

func (s *session) buildOptions() []stree.Option {
	return []stree.Option{
		stree.WithMaxDepth(s.cfg.Build.MaxDepth),
		stree.WithMaxBonds(s.cfg.Build.MaxBonds),
		stree.WithLogger(s.logger),
	}
}

func (s *session) alignOptions() []treealign.Option {
	return []treealign.Option{treealign.WithMaxCells(s.cfg.Align.MaxCells)}
}

func (s *session) editOptions() []ted.Option {
	return []ted.Option{ted.WithMaxCells(s.cfg.Align.MaxCells)}
}

func (s *session) sequenceOptions() []arcseq.Option {
	return []arcseq.Option{arcseq.WithMaxLength(s.cfg.Build.MaxLength)}
}

// format returns flagValue, or the configured output format when it is empty.
func (s *session) format(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return s.cfg.Output.Format
}

// writeOutput renders a command result. Text goes through text; JSON and
// YAML encode view. An empty path writes to w.
func writeOutput(w io.Writer, path, format string, view any, text func(io.Writer) error) error {
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		w = file
	}

	switch format {
	case config.FormatText:
		return text(w)
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		encodeErr := enc.Encode(view)
		if encodeErr != nil {
			return fmt.Errorf("failed to encode JSON: %w", encodeErr)
		}

		return nil
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		encodeErr := enc.Encode(view)
		if encodeErr != nil {
			return fmt.Errorf("failed to encode YAML: %w", encodeErr)
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func nodeLabel(n *stree.Node) string {
	return n.Label.String()
}
