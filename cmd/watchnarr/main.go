package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amaumene/watchnarr/internal/api"
	"github.com/amaumene/watchnarr/internal/config"
	"github.com/amaumene/watchnarr/internal/ledger"
	"github.com/amaumene/watchnarr/internal/progress"
	"github.com/amaumene/watchnarr/internal/services/tmdb"
	"github.com/amaumene/watchnarr/internal/stats"
	"github.com/amaumene/watchnarr/internal/storage"
	"github.com/amaumene/watchnarr/internal/utils"
	"github.com/amaumene/watchnarr/internal/watchlist"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "watchnarr",
		Short:        "Self-hosted media watchlist and episode progress tracker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:          "serve",
			Short:        "Run the HTTP server",
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe()
			},
		},
		&cobra.Command{
			Use:          "export [file]",
			Short:        "Write the watchlist document to a file or stdout",
			Args:         cobra.MaximumNArgs(1),
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				target := ""
				if len(args) == 1 {
					target = args[0]
				}
				return runExport(target)
			},
		},
		&cobra.Command{
			Use:          "import <file>",
			Short:        "Replace the watchlist from a document",
			Args:         cobra.ExactArgs(1),
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(args[0])
			},
		},
		&cobra.Command{
			Use:          "stats",
			Short:        "Print the detailed watchlist summary",
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStats()
			},
		},
	)

	return root
}

// app bundles the wired core components
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	store     storage.Store
	ledger    *ledger.Ledger
	watchlist *watchlist.Store
	stats     *stats.Engine
	catalog   *tmdb.Client
	progress  *progress.Aggregator
	close     func()
}

// buildApp loads configuration and wires the core. The database opens
// read-write; if that fails the app degrades to an in-memory store so
// the watchlist UI stays available.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	var store storage.Store
	closeStore := func() {}

	bolt, err := storage.OpenBolt(cfg.DatabaseFile)
	if err != nil {
		logger.WithError(err).Error("Failed to open database, falling back to in-memory store")
		store = storage.NewMemoryStore()
	} else {
		store = bolt
		closeStore = func() {
			if err := bolt.Close(); err != nil {
				logger.WithError(err).Error("Error closing database")
			}
		}
		logger.WithField("file", cfg.DatabaseFile).Info("Database opened")
	}

	var catalog *tmdb.Client
	if cfg.TMDBAPIKey != "" {
		catalog, err = tmdb.NewClient(cfg, logger)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
		}
		logger.Info("TMDB client initialized")
	} else {
		logger.Warn("No TMDB API key configured, running on cached metadata only")
	}

	led := ledger.New(store, logger)

	var fetcher progress.MetadataFetcher
	if catalog != nil {
		fetcher = catalog
	}
	aggregator := progress.NewAggregator(store, led, fetcher, logger)
	wl := watchlist.NewStore(store, aggregator, logger)
	engine := stats.NewEngine(wl, led, aggregator, store, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		ledger:    led,
		watchlist: wl,
		stats:     engine,
		catalog:   catalog,
		progress:  aggregator,
		close:     closeStore,
	}, nil
}

func runServe() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("Starting watchnarr")

	server := api.NewServer(a.cfg, a.watchlist, a.ledger, a.progress, a.stats, a.catalog, a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.logger.Info("watchnarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			a.logger.WithError(err).Error("Error during server shutdown")
		}
	}

	a.logger.Info("watchnarr stopped")
	return nil
}

func runExport(target string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	data, err := a.watchlist.Export()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if target == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	a.logger.WithField("file", target).Info("Watchlist exported")
	return nil
}

func runImport(source string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}

	count, err := a.watchlist.Import(data)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d entries\n", count)
	return nil
}

func runStats() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	summary := a.stats.DetailedSummarize(context.Background())

	fmt.Printf("Movies:        %d total, %d completed, %d episodes\n",
		summary.Movies.Total, summary.Movies.Completed, summary.Movies.Episodes)
	fmt.Printf("Series:        %d total, %d completed, %d episodes\n",
		summary.Series.Total, summary.Series.Completed, summary.Series.Episodes)
	fmt.Printf("Anime movies:  %d total, %d completed, %d episodes\n",
		summary.AnimeMovies.Total, summary.AnimeMovies.Completed, summary.AnimeMovies.Episodes)
	fmt.Printf("Anime series:  %d total, %d completed, %d episodes\n",
		summary.AnimeSeries.Total, summary.AnimeSeries.Completed, summary.AnimeSeries.Episodes)

	return nil
}
