package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"calclash/internal/config"
	"calclash/internal/demo"
	"calclash/internal/ics"
	appLog "calclash/internal/log"
	"calclash/internal/pipeline"
	"calclash/internal/report"
)

var (
	logger zerolog.Logger

	flagConfig string
	flagDemo   bool
	flagWatch  bool
	flagEnv    string
)

var rootCmd = &cobra.Command{
	Use:   "calclash",
	Short: "calclash - incremental calendar conflict detection",
	Long: "calclash ingests events from several calendar sources concurrently " +
		"and reports overlapping events as soon as they are detected.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the conflict detection pipeline",
	Long: "Fetch all configured sources concurrently, detect conflicts " +
		"incrementally, and print a report block per conflict found.",
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagConfig, "config", defaultConfigPath(), "Path to config file")
	runCmd.Flags().BoolVar(&flagDemo, "demo", false, "Use built-in fixture calendars instead of configured feeds")
	runCmd.Flags().BoolVar(&flagWatch, "watch", false, "Keep running, re-checking on the configured cron schedule")
	runCmd.Flags().StringVar(&flagEnv, "env", "production", "Environment (development enables debug logging)")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/calclash/config.yaml"
	}
	return "./config.yaml"
}

func runRun(cmd *cobra.Command, args []string) error {
	logger = appLog.Setup(flagEnv)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	if !flagDemo && len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources configured in %s (or pass --demo)", flagConfig)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("signal received, shutting down")
		cancel()
	}()

	// Providers are one-shot (each owns a page cursor), so every run
	// rebuilds them. The fetcher persists across runs for revalidation.
	fetcher := ics.NewFetcher()
	buildSources := func() []pipeline.Source {
		now := time.Now().In(loc)
		if flagDemo {
			return demo.Sources(now, loc)
		}
		window := ics.Window{
			Start: now,
			End:   now.AddDate(0, 0, cfg.HorizonDays),
		}
		sources := make([]pipeline.Source, 0, len(cfg.Sources))
		for _, sc := range cfg.Sources {
			feed := ics.Feed{ID: sc.ID, Name: sc.Name, URL: sc.URL}
			sources = append(sources, pipeline.Source{
				ID:       sc.ID,
				Provider: ics.NewProvider(feed, fetcher, window, cfg.PageSize),
			})
		}
		return sources
	}

	runOnce := func() error {
		printer := report.NewPrinter(os.Stdout)
		stats, err := pipeline.Run(ctx, buildSources(), printer.Sink, logger)
		fmt.Printf("%d conflict(s) across %d source(s), %d event(s) in %s\n",
			stats.Conflicts, stats.Sources, stats.EventsRead, stats.Elapsed.Round(time.Millisecond))
		return err
	}

	if !flagWatch {
		return runOnce()
	}

	// Watch mode: run immediately, then on the configured cron schedule
	// until interrupted.
	if err := runOnce(); err != nil {
		logger.Error().Err(err).Msg("run failed")
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.WatchCron, func() {
		if err := runOnce(); err != nil {
			logger.Error().Err(err).Msg("run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", cfg.WatchCron, err)
	}

	logger.Info().Str("schedule", cfg.WatchCron).Msg("watch mode started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	logger.Info().Msg("calclash exiting")
	return nil
}
