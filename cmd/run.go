package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"econdata-collector/collect"
	"econdata-collector/config"
	"econdata-collector/metrics"
	"econdata-collector/models"
	"econdata-collector/services"
	"econdata-collector/sources"
	"econdata-collector/sources/loopnet"
	"econdata-collector/storage"
	"econdata-collector/utils"
)

var (
	flagFixtures bool
	flagTimeout  time.Duration
	flagInterval time.Duration
	flagNoStore  bool
)

func init() {
	runCmd.Flags().BoolVar(&flagFixtures, "fixtures", false, "generate synthetic data instead of calling live APIs")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-run wall-clock budget (defaults to RUN_TIMEOUT)")
	runCmd.Flags().DurationVar(&flagInterval, "interval", 0, "rerun every interval; 0 runs a single cycle")
	runCmd.Flags().BoolVar(&flagNoStore, "no-store", false, "skip warehouse persistence; summaries only")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [source...]",
	Short: "Collect the named sources (all configured sources by default).",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := utils.NewLogger()
		logger.SetDebug(flagVerbose)

		cfg := config.Load()
		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		selected, err := selectSources(catalog, args)
		if err != nil {
			return err
		}

		var set *metrics.Set
		if cfg.MetricsAddr != "" {
			reg := prometheus.NewRegistry()
			set = metrics.NewSet(reg)
			metrics.Serve(cfg.MetricsAddr, reg, func(err error) {
				logger.Error("metrics endpoint: %v", err)
			})
			logger.Info("metrics exposed on %s/metrics", cfg.MetricsAddr)
		}

		jobs, err := buildJobs(cfg, selected, logger, set)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		cycle := func() error { return runCycle(ctx, cfg, selected, jobs, logger) }

		if err := cycle(); err != nil {
			return err
		}
		if flagInterval <= 0 {
			return nil
		}

		ticker := time.NewTicker(flagInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("stopping: %v", ctx.Err())
				return nil
			case <-ticker.C:
				if err := cycle(); err != nil {
					return err
				}
			}
		}
	},
}

func loadCatalog(cfg *config.Config) (config.Catalog, error) {
	path := flagCatalog
	if path == "" {
		path = cfg.CatalogPath
	}
	return config.LoadCatalog(path)
}

func selectSources(catalog config.Catalog, names []string) ([]config.SourceConfig, error) {
	if len(names) == 0 {
		return catalog.Sources, nil
	}
	selected := make([]config.SourceConfig, 0, len(names))
	for _, name := range names {
		scfg, ok := catalog.Source(name)
		if !ok {
			return nil, fmt.Errorf("source %q is not declared in the catalog", name)
		}
		selected = append(selected, scfg)
	}
	return selected, nil
}

// buildJobs wires one collector per selected source. Each job owns its own
// rate limiter, fetcher and parser; nothing is shared between runs.
func buildJobs(cfg *config.Config, selected []config.SourceConfig, logger *utils.Logger, set *metrics.Set) ([]collect.Job, error) {
	timeout := flagTimeout
	if timeout <= 0 {
		timeout = cfg.RunTimeout
	}

	jobs := make([]collect.Job, 0, len(selected))
	for _, scfg := range selected {
		var collector collect.Collector
		parser := collect.NewParser(scfg.Name, logger, set)

		switch {
		case flagFixtures:
			collector = services.NewFixtureGenerator(scfg, parser, logger)
		case scfg.Type == "loopnet":
			collector = loopnet.New(scfg, logger, parser)
		default:
			src, err := sources.New(scfg, cfg.APIKey(scfg.Name))
			if err != nil {
				return nil, err
			}
			if cfg.APIKey(scfg.Name) == "" {
				logger.Warn("source %s: no API key configured, using unregistered quota", scfg.Name)
			}
			fetcher := collect.NewFetcher(collect.FetcherOptions{
				Source:       scfg.Name,
				MaxRetries:   scfg.MaxRetries,
				Timeout:      cfg.HTTPTimeout,
				PayloadCheck: src.CheckPayload,
				Logger:       logger.Named(scfg.Name),
				Metrics:      set,
			})
			limiter := collect.NewRateLimiter(scfg.RateInterval)
			collector = collect.NewRunner(src, limiter, fetcher, parser, logger, set)
		}

		jobs = append(jobs, collect.Job{
			Name:      scfg.Name,
			Collector: collector,
			Targets:   scfg.TargetList(),
			Timeout:   timeout,
		})
	}
	return jobs, nil
}

// runCycle executes all jobs once and persists the results. A warehouse
// failure never loses records: the in-memory summaries are written to the
// CSV fallback and the failure is recorded in the run log.
func runCycle(ctx context.Context, cfg *config.Config, selected []config.SourceConfig, jobs []collect.Job, logger *utils.Logger) error {
	orch := collect.NewOrchestrator(cfg.MaxConcurrentRuns, logger)
	summaries := orch.RunAll(ctx, jobs)

	if !flagNoStore {
		if err := persist(cfg, selected, summaries, logger); err != nil {
			return err
		}
	}

	reports := services.NewReportService(logger)
	reports.Print(reports.Generate(summaries))
	return nil
}

func persist(cfg *config.Config, selected []config.SourceConfig, summaries []*models.Summary, logger *utils.Logger) error {
	var primary storage.BulkSink
	warehouse, warehouseErr := storage.NewPostgresWriter(cfg.DSN())
	if warehouseErr != nil {
		logger.Error("warehouse unavailable, records will go to the CSV fallback: %v", warehouseErr)
	} else {
		primary = warehouse
		defer warehouse.Close()
	}

	fallback, err := storage.NewCSVSink(cfg.CSVFallbackDir)
	if err != nil {
		return err
	}

	var recorder runRecorder
	runlog, err := storage.OpenRunLog(cfg.RunlogPath)
	if err != nil {
		logger.Error("run log unavailable: %v", err)
	} else {
		recorder = runlog
		defer runlog.Close()
	}

	storeSummaries(primary, warehouseErr, fallback, recorder, selected, summaries, logger)
	return nil
}

// runRecorder is satisfied by *storage.RunLog.
type runRecorder interface {
	Record(sum *models.Summary, persistErr error) error
}

// storeSummaries dispatches each finished run to the sinks: the primary sink
// receives exactly one Append per run carrying exactly that run's records;
// when the primary is unavailable or fails, the batch goes to the fallback
// sink instead and the run log records the persist error.
func storeSummaries(primary storage.BulkSink, primaryErr error, fallback storage.BulkSink, runlog runRecorder, selected []config.SourceConfig, summaries []*models.Summary, logger *utils.Logger) {
	for i, sum := range summaries {
		if sum == nil {
			continue
		}
		table := selected[i].Table
		if table == "" {
			table = selected[i].Name
		}

		var persistErr error
		if len(sum.Records) > 0 {
			if primary != nil {
				persistErr = primary.Append(table, sum.Records)
			} else {
				persistErr = primaryErr
			}
			if persistErr != nil {
				logger.Error("append %d record(s) to %s failed: %v", len(sum.Records), table, persistErr)
				if fbErr := fallback.Append(table, sum.Records); fbErr != nil {
					logger.Error("CSV fallback failed too: %v", fbErr)
				} else {
					logger.Warn("records for %s written to the CSV fallback", table)
				}
			}
		}

		if sum.Failed() > 0 {
			logger.Warn("source %s failures:\n%s", sum.DataSource, services.FailureLines(sum))
		}
		if runlog != nil {
			if err := runlog.Record(sum, persistErr); err != nil {
				logger.Error("record run %s: %v", sum.RunID, err)
			}
		}
	}
}
