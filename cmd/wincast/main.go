// Package main provides the entry point for the Wincast prediction pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/database"
	"github.com/yourusername/wincast/internal/logger"
	"github.com/yourusername/wincast/internal/metrics"
	"github.com/yourusername/wincast/internal/models"
	"github.com/yourusername/wincast/internal/pipeline"
	"github.com/yourusername/wincast/internal/repository"
	"github.com/yourusername/wincast/internal/scheduler"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	dateFlag   string
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	predictCmd.Flags().StringVar(&dateFlag, "date", "", "Reference date (YYYY-MM-DD, defaults to today)")

	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(serveMetricsCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "wincast",
	Short: "Race-card win probability pipeline",
	Long:  `Trains a per-venue ensemble on historical race results and predicts win probabilities for today's races.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return setup()
	},
}

// predictCmd runs the pipeline once for one or all configured venues.
var predictCmd = &cobra.Command{
	Use:   "predict [venue]",
	Short: "Run the prediction pipeline once",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := referenceDate()
		if err != nil {
			return err
		}

		venues := cfg.Data.Venues
		if len(args) == 1 {
			venues = args[:1]
		}

		pipe, cleanup, err := buildPipeline()
		if err != nil {
			return err
		}
		defer cleanup()

		timeout := venueTimeout()
		failures := 0
		for _, venue := range venues {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			res, err := pipe.Run(ctx, venue, now)
			cancel()

			switch {
			case errors.Is(err, models.ErrNothingToPredict):
				appLog.WithField("venue", venue).Info("No unresolved races for the reference date")
			case err != nil:
				appLog.WithError(err).WithField("venue", venue).Error("Pipeline run failed")
				failures++
			default:
				fmt.Printf("%s: %d races, %d horses, report %s\n",
					venue, res.Races, res.PredictRows, res.ReportPath)
			}
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d venue runs failed", failures, len(venues))
		}
		return nil
	},
}

// dailyCmd runs the cron scheduler until interrupted, optionally serving
// Prometheus metrics.
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the pipeline on the configured daily schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, cleanup, err := buildPipeline()
		if err != nil {
			return err
		}
		defer cleanup()

		sched := scheduler.NewScheduler(pipe, &cfg.Schedule, cfg.Data.Venues, appLog)
		if err := sched.ScheduleDaily(); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		appLog.WithField("next_run", sched.NextRun().Format(time.RFC3339)).Info("Daily scheduler running")

		var metricsSrv *http.Server
		if cfg.Metrics.Enabled {
			metricsSrv = serveMetrics()
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		appLog.Info("Shutting down")
		if metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(ctx); err != nil {
				appLog.WithError(err).Error("Failed to stop metrics server")
			}
		}
		return sched.Stop()
	},
}

// serveMetricsCmd exposes the Prometheus endpoint on its own, useful when
// predictions are driven externally (e.g. by system cron calling predict).
var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve the Prometheus metrics endpoint until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := serveMetrics()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wincast %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"venues":      len(cfg.Data.Venues),
	}).Info("Wincast starting")

	metrics.InitRegistry()
	return nil
}

// buildPipeline assembles the pipeline and, when a prediction store is
// configured, connects it and attaches the repositories. The returned
// cleanup closes the database connection.
func buildPipeline() (*pipeline.Pipeline, func(), error) {
	pipe := pipeline.New(cfg, appLog)
	if !cfg.HasDatabase() {
		return pipe, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	appLog.Info("Prediction store connected")

	pipe.WithStore(
		repository.NewPostgresRunRepository(db),
		repository.NewPostgresPredictionRepository(db),
	)
	return pipe, func() { db.Close() }, nil
}

func serveMetrics() *http.Server {
	path := cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		appLog.WithField("addr", srv.Addr).Info("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Error("Metrics server failed")
		}
	}()
	return srv
}

func referenceDate() (time.Time, error) {
	if dateFlag == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", dateFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", dateFlag, err)
	}
	return t, nil
}

func venueTimeout() time.Duration {
	if cfg.Schedule.VenueTimeoutMin > 0 {
		return time.Duration(cfg.Schedule.VenueTimeoutMin) * time.Minute
	}
	return 10 * time.Minute
}
