package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/persist"
	"github.com/Sumatoshi-tech/stalign/pkg/workbench"
)

// workbenchOptions holds the workbench command flags.
type workbenchOptions struct {
	workers        int
	engine         string
	format         string
	structuresCSV  string
	comparisonsCSV string
	metricsFile    string
	treesDir       string
	codec          string
	noCSV          bool
}

func newWorkbenchCommand(opts *globalOptions) *cobra.Command {
	wo := &workbenchOptions{}

	cmd := &cobra.Command{
		Use:   "workbench dir",
		Short: "Compare every pair of structures in a directory",
		Long: `Build the structural tree of every recognized file in dir, compare every
pair of built trees and write two CSV reports into dir:

  ` + workbench.StructuresFileName + `   one row per built structure
  ` + workbench.ComparisonsFileName + `     one row per compared pair

Hidden files, subfolders and files with other extensions are skipped with a
warning, as are files that cannot be read or built.

Examples:
  stalign workbench data/
  stalign workbench -w 8 --engine both data/
  stalign workbench --trees-dir trees --codec json+lz4 data/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, observability.ModeWorkbench, func(ctx context.Context, sess *session) error {
				return runWorkbench(ctx, cmd.OutOrStdout(), sess, args[0], wo)
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&wo.workers, "workers", "w", -1, "parallel workers (default: workbench.workers, 0 = all CPUs)")
	flags.StringVar(&wo.engine, "engine", "", "distances to compute (align, ted, both)")
	flags.StringVarP(&wo.format, "format", "f", "", "summary format (text, json, yaml)")
	flags.StringVar(&wo.structuresCSV, "structures-csv", "", "structures report (default: dir/"+workbench.StructuresFileName+")")
	flags.StringVar(&wo.comparisonsCSV, "comparisons-csv", "", "comparisons report (default: dir/"+workbench.ComparisonsFileName+")")
	flags.StringVar(&wo.metricsFile, "metrics-file", "", "write a Prometheus textfile snapshot after the run")
	flags.StringVar(&wo.treesDir, "trees-dir", "", "store a snapshot of every built tree in this directory")
	flags.StringVar(&wo.codec, "codec", "", "snapshot codec (json, yaml, gob, json+lz4, gob+lz4)")
	flags.BoolVar(&wo.noCSV, "no-csv", false, "do not write the CSV reports")

	return cmd
}

func runWorkbench(ctx context.Context, out io.Writer, sess *session, dir string, wo *workbenchOptions) error {
	cfg := sess.cfg

	engineName := cfg.Align.Engine
	if wo.engine != "" {
		engineName = wo.engine
	}

	engine, err := workbench.ParseEngine(engineName)
	if err != nil {
		return err
	}

	workers := cfg.Workbench.Workers
	if wo.workers >= 0 {
		workers = wo.workers
	}

	paths, err := workbench.LoadDir(dir, cfg.NormalizedExtensions(), sess.logger)
	if err != nil {
		return err
	}

	runnerOpts := workbench.Options{
		Workers:         workers,
		Engine:          engine,
		Model:           sess.model,
		SequenceOptions: sess.sequenceOptions(),
		BuildOptions:    sess.buildOptions(),
		AlignOptions:    sess.alignOptions(),
		EditOptions:     sess.editOptions(),
		Logger:          sess.logger,
		Tracer:          sess.tracer,
		Metrics:         sess.metrics,
	}

	treesDir := firstNonEmpty(wo.treesDir, cfg.Workbench.TreesDir)
	if treesDir != "" {
		codec, codecErr := persist.CodecByName(sess.codecName(wo.codec))
		if codecErr != nil {
			return codecErr
		}

		runnerOpts.Trees = persist.NewPersister[workbench.Snapshot](treesDir, codec)
	}

	metricsPath := firstNonEmpty(wo.metricsFile, cfg.Telemetry.MetricsFile)

	var metricsFile *observability.MetricsFile

	if metricsPath != "" {
		metricsFile, err = observability.NewMetricsFile()
		if err != nil {
			return err
		}

		defer func() {
			shutdownErr := metricsFile.Shutdown(context.Background())
			if shutdownErr != nil {
				sess.logger.Warn("metrics shutdown failed", "error", shutdownErr)
			}
		}()

		runnerOpts.Metrics, err = observability.NewStructureMetrics(metricsFile.Meter())
		if err != nil {
			return err
		}
	}

	runner, err := workbench.NewRunner(runnerOpts)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, paths)
	if err != nil {
		return err
	}

	if !wo.noCSV {
		err = writeReports(dir, report, wo)
		if err != nil {
			return err
		}
	}

	if metricsFile != nil {
		err = metricsFile.Write(metricsPath)
		if err != nil {
			return err
		}
	}

	return writeOutput(out, "", sess.format(wo.format), report.View(), func(w io.Writer) error {
		return writeWorkbenchText(w, report)
	})
}

func writeReports(dir string, report *workbench.Report, wo *workbenchOptions) error {
	structuresPath := firstNonEmpty(wo.structuresCSV, filepath.Join(dir, workbench.StructuresFileName))
	comparisonsPath := firstNonEmpty(wo.comparisonsCSV, filepath.Join(dir, workbench.ComparisonsFileName))

	err := writeFile(structuresPath, func(w io.Writer) error {
		return workbench.WriteStructuresCSV(w, report)
	})
	if err != nil {
		return err
	}

	return writeFile(comparisonsPath, func(w io.Writer) error {
		return workbench.WriteComparisonsCSV(w, report)
	})
}

func writeWorkbenchText(w io.Writer, report *workbench.Report) error {
	err := workbench.WriteSummary(w, report)
	if err != nil {
		return err
	}

	if len(report.Comparisons) == 0 {
		_, err = color.New(color.FgYellow).Fprintln(w, "fewer than two structures built, nothing to compare")
		if err != nil {
			return fmt.Errorf("write summary: %w", err)
		}

		return nil
	}

	return workbench.WriteComparisonsTable(w, report)
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writeErr := write(file)
	closeErr := file.Close()

	if writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
