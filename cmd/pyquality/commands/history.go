package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/basalt-metrics/pyquality/internal/analysiscache"
	"github.com/basalt-metrics/pyquality/internal/config"
	"github.com/basalt-metrics/pyquality/internal/history"
	"github.com/basalt-metrics/pyquality/internal/metricspipeline"
	"github.com/basalt-metrics/pyquality/internal/observability"
	"github.com/basalt-metrics/pyquality/internal/report"
	"github.com/basalt-metrics/pyquality/internal/store"
	"github.com/basalt-metrics/pyquality/internal/vcsdriver"
	"github.com/basalt-metrics/pyquality/internal/walker"
)

// historyCmd holds the flag values for the history command.
type historyCmd struct {
	start        string
	maxRevisions int
	storePath    string
	operators    []string
	excludes     string
	skipDirs     string
	notebooks    bool
	workers      int
	metricsAddr  string
	reportPath   string
}

// NewHistoryCommand builds the "history" command, which drives the history
// runner (component J) end to end: VCS enumeration, per-revision analysis,
// and appending rows to the columnar store.
func NewHistoryCommand() *cobra.Command {
	hc := &historyCmd{}

	cmd := &cobra.Command{
		Use:   "history [repository]",
		Short: "Analyze Python code quality across a git repository's history",
		Args:  cobra.MaximumNArgs(1),
		RunE:  hc.run,
	}

	cmd.Flags().StringVar(&hc.start, "start", "HEAD", "branch, tag, or commit to walk from")
	cmd.Flags().IntVar(&hc.maxRevisions, "max-revisions", 0, "maximum number of commits to visit (0 = unbounded)")
	cmd.Flags().StringVar(&hc.storePath, "store", config.DefaultStorePath, "path to the columnar metrics store")
	cmd.Flags().StringSliceVar(&hc.operators, "operators", []string{"raw", "cyclomatic", "halstead", "maintainability"}, "metric families to compute")
	cmd.Flags().StringVar(&hc.excludes, "exclude", "", "comma-separated exclude glob patterns")
	cmd.Flags().StringVar(&hc.skipDirs, "skip-dirs", "", "comma-separated directory-name patterns to skip")
	cmd.Flags().BoolVar(&hc.notebooks, "notebooks", false, "also analyze .ipynb files")
	cmd.Flags().IntVar(&hc.workers, "workers", 0, "per-revision analysis worker count (0 = CPU count)")
	cmd.Flags().StringVar(&hc.metricsAddr, "metrics-addr", "", "if set, serve Prometheus /metrics on this address while running")
	cmd.Flags().StringVar(&hc.reportPath, "report", "", "if set, write an HTML chart of root MI over revisions to this path")

	return cmd
}

func (hc *historyCmd) run(cmd *cobra.Command, args []string) error {
	repoPath := "."
	if len(args) == 1 {
		repoPath = args[0]
	}

	logger := observability.NewLogger(slog.LevelInfo)
	metrics := observability.NewMetrics()

	if hc.metricsAddr != "" {
		go serveMetrics(hc.metricsAddr, metrics, logger)
	}

	repo, err := vcsdriver.Open(repoPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	sess, err := store.OpenSession(hc.storePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	pipelineOpts := metricspipeline.DefaultOptions()
	pipelineOpts.Mask = metricspipeline.NewOperatorMask(hc.operators)

	started := time.Now()

	runErr := history.Run(cmd.Context(), repo, sess, history.Options{
		Start:        hc.start,
		MaxRevisions: hc.maxRevisions,
		Walker: walker.Options{
			ExcludeGlobs:     hc.excludes,
			SkipDirs:         hc.skipDirs,
			IncludeNotebooks: hc.notebooks,
		},
		Pipeline:  pipelineOpts,
		Workers:   hc.workers,
		Metrics:   metrics,
		Cache:     analysiscache.NewBlobCache[*metricspipeline.AnalyzedFile](),
		BlobCache: analysiscache.NewLRUBlobCache(analysiscache.DefaultLRUCacheSize),
		Progress: func(index, total int, key string) {
			logger.Info("revision analyzed", "index", index, "total", total, "revision", key)
		},
	})

	closeErr := sess.Close()

	if runErr != nil {
		return fmt.Errorf("history run: %w", runErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close store: %w", closeErr)
	}

	if hc.reportPath != "" {
		if err := writeReport(sess, hc.reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	printHistorySummary(cmd, hc.storePath, time.Since(started))

	return nil
}

func writeReport(sess *store.Session, path string) error {
	points, err := report.MIHistory(sess)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return report.RenderMIHistory(f, points)
}

func printHistorySummary(cmd *cobra.Command, storePath string, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Store", "Elapsed"})
	t.AppendRow(table.Row{storePath, humanize.Time(time.Now().Add(-elapsed))})
	t.Render()
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serving metrics", "addr", addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "error", err)
	}
}
