package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"activitybox/internal/config"
	"activitybox/internal/github"
	"activitybox/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	naturaldate "github.com/tj/go-naturaldate"
)

var (
	sinceFlag    string
	dryRunFlag   bool
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "activitybox",
	Short:         "Write your recent public GitHub activity into a gist",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sinceFlag, "since", "", `ignore activity before this date, e.g. "2026-01-28", "yesterday", "2 weeks ago"`)
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "build the document but do not update the gist")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
}

// Execute runs the CLI. Cancelling ctx stops in-flight requests and the scheduler.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger, time.Now())
	if err != nil {
		return err
	}

	logger.Debug("starting")
	if _, err := p.Run(cmd.Context()); err != nil {
		return err
	}
	return nil
}

// loadConfig reads .env and the environment and installs the default logger.
// It runs before any network call so configuration errors abort early.
func loadConfig() (config.Config, *slog.Logger, error) {
	// Load .env file without overriding existing env vars.
	// Precedence: real env vars > .env file values.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return config.Config{}, nil, err
	}

	if logLevelFlag != "" {
		if cfg.LogLevel, err = config.ParseLogLevel(logLevelFlag); err != nil {
			return config.Config{}, nil, err
		}
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// newPipeline resolves --since against now and builds the pipeline from an
// already loaded configuration.
func newPipeline(cfg config.Config, logger *slog.Logger, now time.Time) (*pipeline.Pipeline, error) {
	var since time.Time
	if sinceFlag != "" {
		t, err := parseDate(sinceFlag, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --since value %q: %w", sinceFlag, err)
		}
		since = startOfDay(t)
	}

	client, err := github.NewClient(cfg.Token, github.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		Username:      cfg.Username,
		GistID:        cfg.GistID,
		GistFilename:  cfg.GistFilename,
		MaxPage:       cfg.MaxPage,
		MaxActivities: cfg.MaxActivities,
		MaxLength:     cfg.MaxLength,
		Since:         since,
		DryRun:        dryRunFlag,
	}, client, client, logger)
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

const dateFormat = "2006-01-02"

// parseDate tries YYYY-MM-DD first, then falls back to natural language parsing
// via go-naturaldate. The ref time is used as the reference point for relative
// expressions (e.g. "2 weeks ago" is relative to ref).
func parseDate(s string, ref time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation(dateFormat, s, ref.Location()); err == nil {
		return t, nil
	}
	return naturaldate.Parse(s, ref)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
