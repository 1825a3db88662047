package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/basalt-metrics/pyquality/internal/metricspipeline"
	"github.com/basalt-metrics/pyquality/internal/revision"
	"github.com/basalt-metrics/pyquality/internal/store"
	"github.com/basalt-metrics/pyquality/internal/walker"
)

type analyzeCmd struct {
	operators []string
	excludes  string
	skipDirs  string
	notebooks bool
	workers   int
}

// NewAnalyzeCommand builds the "analyze" command: runs the revision
// orchestrator once over the given working-tree root without any VCS
// involvement, per spec.md §1's "no history" out-of-scope collaborator.
func NewAnalyzeCommand() *cobra.Command {
	ac := &analyzeCmd{}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze Python code quality in a single working tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  ac.run,
	}

	cmd.Flags().StringSliceVar(&ac.operators, "operators", []string{"raw", "cyclomatic", "halstead", "maintainability"}, "metric families to compute")
	cmd.Flags().StringVar(&ac.excludes, "exclude", "", "comma-separated exclude glob patterns")
	cmd.Flags().StringVar(&ac.skipDirs, "skip-dirs", "", "comma-separated directory-name patterns to skip")
	cmd.Flags().BoolVar(&ac.notebooks, "notebooks", false, "also analyze .ipynb files")
	cmd.Flags().IntVar(&ac.workers, "workers", 0, "analysis worker count (0 = CPU count)")

	return cmd
}

func (ac *analyzeCmd) run(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	paths, err := walker.Walk([]string{root}, walker.Options{
		ExcludeGlobs:     ac.excludes,
		SkipDirs:         ac.skipDirs,
		IncludeNotebooks: ac.notebooks,
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	refs := make([]revision.FileRef, len(paths))
	for i, p := range paths {
		refs[i] = revision.FileRef{AbsPath: p}
	}

	pipelineOpts := metricspipeline.DefaultOptions()
	pipelineOpts.Mask = metricspipeline.NewOperatorMask(ac.operators)

	rows, err := revision.Orchestrate(context.Background(), refs, revision.Meta{
		Key:  "working-tree",
		Date: time.Now().Unix(),
	}, revision.Options{
		Base:     root,
		Workers:  ac.workers,
		Pipeline: pipelineOpts,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", root, err)
	}

	printAnalyzeSummary(cmd, rows)

	return nil
}

// printAnalyzeSummary renders one table row per file-level MetricRow,
// coloring the maintainability rank the way a terminal report typically
// highlights risk (green A, yellow B, red C).
func printAnalyzeSummary(cmd *cobra.Command, rows []store.MetricRow) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Path", "LOC", "Complexity", "MI", "Rank"})

	for _, r := range rows {
		if r.PathType != string(store.PathTypeFile) {
			continue
		}

		t.AppendRow(table.Row{
			r.Path,
			derefInt64(r.LOC),
			derefFloat64(r.Complexity),
			derefFloat64(r.MI),
			colorRank(derefString(r.Rank)),
		})
	}

	t.Render()
}

func colorRank(rank string) string {
	switch rank {
	case "A":
		return color.GreenString(rank)
	case "B":
		return color.YellowString(rank)
	case "":
		return ""
	default:
		return color.RedString(rank)
	}
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}

	return *p
}

func derefFloat64(p *float64) float64 {
	if p == nil {
		return 0
	}

	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}
