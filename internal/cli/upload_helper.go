package cli

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dart-platform/dart-cli/internal/config"
	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/forklift/filescan"
	"github.com/dart-platform/dart-cli/internal/forklift/pipeline"
	"github.com/dart-platform/dart-cli/internal/forklift/route"
	"github.com/dart-platform/dart-cli/internal/forklift/state"
	"github.com/dart-platform/dart-cli/internal/forklift/upload"
	dhttp "github.com/dart-platform/dart-cli/internal/http"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/models"
	"github.com/dart-platform/dart-cli/internal/pathutil"
	"github.com/dart-platform/dart-cli/internal/progress"
	"github.com/dart-platform/dart-cli/internal/ratelimit"
	"github.com/dart-platform/dart-cli/internal/util/filter"
)

// batchFlags are the input, routing and concurrency flags shared by
// 'forklift submit' and 'post'.
type batchFlags struct {
	inputDir       string
	succeededDir   string
	failedDir      string
	threads        int
	retryAttempts  int
	retryDelay     time.Duration
	reportPath     string
	noProgress     bool
	statusInterval time.Duration
	include        []string
	exclude        []string
	rateLimit      float64
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.inputDir, "input-dir", "", "Directory to upload recursively (hidden files are skipped)")
	cmd.Flags().StringVarP(&f.succeededDir, "succeeded-dir", "s", "", "Move successfully posted files here")
	cmd.Flags().StringVarP(&f.failedDir, "failed-dir", "f", "", "Move files that could not be posted here")
	cmd.Flags().IntVar(&f.threads, "threads", 0,
		fmt.Sprintf("Concurrent uploads (%d-%d, default from profile or %d)", constants.MinWorkers, constants.MaxWorkers, constants.DefaultWorkers))
	cmd.Flags().IntVar(&f.retryAttempts, "retry-attempts", 0,
		fmt.Sprintf("Attempts per file including the first (default from profile or %d)", constants.DefaultRetryAttempts))
	cmd.Flags().DurationVar(&f.retryDelay, "retry-delay", constants.DefaultRetryDelay, "Pause between attempts")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "Write a CSV report with one row per file")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().DurationVar(&f.statusInterval, "status-interval", constants.DefaultStatusInterval, "Status line cadence (0 disables)")
	cmd.Flags().StringArrayVar(&f.include, "include", nil, "Only post files matching these patterns (e.g. '*.json', 'docs/**/*.pdf')")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "Skip files matching these patterns; wins over --include")
	cmd.Flags().Float64Var(&f.rateLimit, "rate-limit", 0, "Maximum uploads started per second across all workers (0 means unlimited)")
}

// resolvePaths expands ~ and makes the directory and report flags absolute.
func (f *batchFlags) resolvePaths() error {
	return pathutil.ResolveAll(&f.inputDir, &f.succeededDir, &f.failedDir, &f.reportPath)
}

// overrides returns the profile overrides carried by these flags.
func (f *batchFlags) overrides(cmd *cobra.Command) config.FlagOverrides {
	return config.FlagOverrides{
		Workers:       f.threads,
		RetryAttempts: f.retryAttempts,
		RetryDelay:    f.retryDelay,
		RetryDelaySet: cmd.Flags().Changed("retry-delay"),
	}
}

// batchRun is everything executeBatch needs for one run.
type batchRun struct {
	files           []string
	flags           batchFlags
	ignoreMetaFiles bool

	cfg             *config.Config
	url             string
	format          models.Format
	includeMetadata bool
	headers         nethttp.Header
	composer        pipeline.Composer
}

// expandGlobPatterns expands glob patterns like *.json, even when quoted.
// Plain paths are kept as given, so a missing file still becomes a task
// (and fails). Duplicates are dropped.
func expandGlobPatterns(patterns []string) ([]string, error) {
	var expanded []string
	seen := make(map[string]bool)

	add := func(path string) {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			expanded = append(expanded, path)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			add(pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", pattern)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return expanded, nil
}

// executeBatch enumerates, uploads and routes every input, then prints the
// summary. Startup problems are returned before any file is posted. The
// returned error is non-nil when any task failed or was cancelled.
func executeBatch(ctx context.Context, run batchRun, logger *logging.Logger) (pipeline.Summary, error) {
	if run.flags.rateLimit < 0 {
		return pipeline.Summary{}, fmt.Errorf("--rate-limit must not be negative")
	}
	if err := run.flags.resolvePaths(); err != nil {
		return pipeline.Summary{}, fmt.Errorf("failed to resolve paths: %w", err)
	}

	files, err := expandGlobPatterns(run.files)
	if err != nil {
		return pipeline.Summary{}, err
	}

	scan, err := filescan.ScanFiles(filescan.ScanOptions{
		Files:           files,
		InputDir:        run.flags.inputDir,
		IgnoreMetaFiles: run.ignoreMetaFiles,
		Filter: filter.Config{
			Include: filter.ParsePatternList(run.flags.include),
			Exclude: filter.ParsePatternList(run.flags.exclude),
		},
		Logger: logger,
	})
	if err != nil {
		return pipeline.Summary{}, err
	}

	router, err := route.NewRouter(run.flags.succeededDir, run.flags.failedDir, logger)
	if err != nil {
		return pipeline.Summary{}, err
	}
	if run.flags.succeededDir != "" || run.flags.failedDir != "" {
		if groups, n := route.FindCollisions(scan.Tasks); n > 0 {
			logger.Warn().
				Int("files", n).
				Int("names", len(groups)).
				Msgf("Files share a base name and will overwrite each other when moved (e.g. %s)", groups[0].Name)
		}
	}

	httpClient, err := dhttp.NewClient(run.cfg, logger)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	runID := uuid.NewString()
	client, err := upload.NewClient(upload.Options{
		URL:             run.url,
		Format:          run.format,
		IncludeMetadata: run.includeMetadata,
		Headers:         run.headers,
		Retry:           dhttp.RetryPolicy{Attempts: run.cfg.Upload.RetryAttempts, Delay: run.cfg.RetryDelay()},
		HTTPClient:      httpClient,
		Logger:          logger,
		RequestID:       runID,
	})
	if err != nil {
		return pipeline.Summary{}, err
	}

	var limiter pipeline.Limiter
	if run.flags.rateLimit > 0 {
		rl, err := ratelimit.NewRateLimiter(run.flags.rateLimit, run.flags.rateLimit, logger)
		if err != nil {
			return pipeline.Summary{}, err
		}
		limiter = rl
	}

	ui := progress.NewBatchUI(len(scan.Tasks), !run.flags.noProgress, logger.Output())
	prevOutput := logger.Output()
	finishUI := func() {
		ui.Finish()
		logger.SetOutput(prevOutput)
	}
	if ui.IsTerminal() {
		logger.SetOutput(ui.LogWriter())
	}

	var report *state.Report
	if run.flags.reportPath != "" {
		report = state.NewReport(run.flags.reportPath)
	}

	pool, err := pipeline.New(pipeline.Options{
		Workers:        run.cfg.Upload.Workers,
		Uploader:       client,
		Composer:       run.composer,
		Router:         router,
		Limiter:        limiter,
		Logger:         logger,
		RunID:          runID,
		StatusInterval: run.flags.statusInterval,
		OnResult: func(res models.Result) {
			ui.Increment(res.Outcome.Kind)
			if report != nil {
				report.Record(res)
			}
		},
	})
	if err != nil {
		finishUI()
		return pipeline.Summary{}, err
	}

	logger.Info().
		Str("run_id", runID).
		Str("url", run.url).
		Str("format", string(run.format)).
		Int("skipped_hidden", scan.SkippedHidden).
		Int("skipped_sidecars", scan.SkippedSidecar).
		Int("skipped_filter", scan.SkippedFilter).
		Msgf("Found %d file(s) to post", len(scan.Tasks))

	summary, _ := pool.Run(ctx, scan.Tasks)
	finishUI()

	var reportErr error
	if report != nil {
		if err := report.Save(); err != nil {
			logger.Error().Err(err).Str("path", run.flags.reportPath).Msg("Failed to write report")
			reportErr = fmt.Errorf("failed to write report %s: %w", run.flags.reportPath, err)
		} else {
			logger.Info().
				Str("path", run.flags.reportPath).
				Int("succeeded", report.CountByOutcome(models.Succeeded.String())).
				Int("failed", report.CountByOutcome(models.Failed.String())).
				Msg("Report written")
		}
	}

	return summary, errors.Join(summary.Err(), reportErr)
}
