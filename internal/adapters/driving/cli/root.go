// Package cli wires the ingestion services behind a cobra command tree.
// Commands talk to the core exclusively through the driving ports; all
// construction happens once in initServices.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	artifactsfs "github.com/parchmint/ingest-cli/internal/adapters/driven/artifacts/filesystem"
	configfile "github.com/parchmint/ingest-cli/internal/adapters/driven/config/file"
	"github.com/parchmint/ingest-cli/internal/adapters/driven/ocr/httpengine"
	sourcefs "github.com/parchmint/ingest-cli/internal/adapters/driven/source/filesystem"
	"github.com/parchmint/ingest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/parchmint/ingest-cli/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
	"github.com/parchmint/ingest-cli/internal/core/services"
	"github.com/parchmint/ingest-cli/internal/logger"
	"github.com/parchmint/ingest-cli/internal/normalisers"
	"github.com/parchmint/ingest-cli/internal/postprocessors/chunker"
	"github.com/parchmint/ingest-cli/internal/ratelimit"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath  string
	verboseFlag bool
	orgFlag     string
)

// Services the commands run against. Wired by initServices; nil until
// then so tests can substitute their own.
var (
	cfg           *configfile.Config
	store         *sqlite.Store
	jobQueue      driving.JobQueue
	ingestRunner  driving.Pipeline
	reviewService driving.ReviewService
	orgStore      driven.OrgStore
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Document ingestion pipeline",
	Long: `ingest turns heterogeneous source documents into normalised,
chunked text. Files are queued durably, OCR runs with a two-engine
fallback, uncertain output lands in a manual review backlog, and
normalised text is split into bounded overlapping chunks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&orgFlag, "org", "", "Organisation to operate as (default from config)")
}

// Execute runs the CLI. The store is closed on the way out.
func Execute() error {
	defer func() {
		if store != nil {
			store.Close()
		}
	}()
	return rootCmd.Execute()
}

// initServices builds the full service graph from configuration. Safe
// to call more than once; subsequent calls are no-ops.
func initServices() error {
	if jobQueue != nil {
		return nil
	}

	var err error
	cfg, err = configfile.Load(configPath)
	if err != nil {
		return err
	}
	if orgFlag == "" {
		orgFlag = cfg.DefaultOrg
	}

	store, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	lease, base, ceiling, ageAlert := cfg.Queue.Durations()
	jobQueue = services.NewJobQueueService(
		store.JobStore(),
		artifactsfs.New(cfg.FailureDir),
		services.QueueConfig{
			LeaseTimeout:      lease,
			MaxAttempts:       cfg.Queue.MaxAttempts,
			BackoffBase:       base,
			BackoffCap:        ceiling,
			AgeAlertThreshold: ageAlert,
		},
	)

	reviewService = services.NewReviewQueueService(store.ReviewStore())
	orgStore = services.NewCachedOrgStore(configfile.NewOrgStore(cfg), time.Duration(cfg.OrgCacheTTL))

	tok, err := tiktoken.New(tiktoken.DefaultEncoding)
	if err != nil {
		return fmt.Errorf("initialise tokenizer: %w", err)
	}

	ingestRunner = services.NewIngestPipeline(
		jobQueue,
		sourcefs.New(),
		normalisers.NewRegistry(),
		buildCoordinator(store.ReviewStore()),
		chunker.New(tok),
		store.DocumentStore(),
		orgStore,
		services.PipelineConfig{
			// --workers wins over the config file; flags are parsed
			// before PersistentPreRunE fires.
			Workers:      firstPositive(workerCount, cfg.Pipeline.Workers),
			PollInterval: time.Duration(cfg.Pipeline.PollInterval),
		},
	)
	return nil
}

// buildCoordinator assembles the OCR coordinator from the configured
// engines. Without a primary engine there is no coordinator: documents
// needing OCR then fail rather than pass with empty text.
func buildCoordinator(reviews driven.ReviewStore) driving.OCRCoordinator {
	if cfg.OCR.Primary.URL == "" {
		return nil
	}

	primary := httpengine.New(httpengine.Config{
		Name:    engineName(cfg.OCR.Primary.Name, "primary"),
		BaseURL: cfg.OCR.Primary.URL,
		Timeout: time.Duration(cfg.OCR.Primary.Timeout),
	})

	var secondary driven.OCREngine
	if cfg.OCR.Secondary.URL != "" {
		secondary = httpengine.New(httpengine.Config{
			Name:    engineName(cfg.OCR.Secondary.Name, "secondary"),
			BaseURL: cfg.OCR.Secondary.URL,
			Timeout: time.Duration(cfg.OCR.Secondary.Timeout),
		})
	}

	return services.NewCoordinator(primary, secondary, reviews, services.OCRConfig{
		Thresholds:  cfg.OCR.Thresholds(),
		CallTimeout: time.Duration(cfg.OCR.CallTimeout),
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.OCR.RequestsPerSecond,
			BurstSize:         cfg.OCR.BurstSize,
			MaxConcurrent:     cfg.OCR.MaxConcurrent,
		},
	})
}

func engineName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
