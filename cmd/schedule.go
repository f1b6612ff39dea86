package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"activitybox/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var cronFlag string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Update the gist on a cron schedule until interrupted",
	Long: `Run the same update as the root command on a cron schedule.

A tick is skipped while the previous update is still running. Failed updates
are logged and retried on the next tick.

Examples:
  activitybox schedule --cron "*/30 * * * *"
  activitybox schedule --cron "@hourly" --since "1 week ago"`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&cronFlag, "cron", "@hourly", "standard 5-field cron expression or descriptor")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if _, err := cron.ParseStandard(cronFlag); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronFlag, err)
	}

	// Configuration is read once; only --since is re-resolved on each tick.
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := newPipeline(cfg, logger, time.Now()); err != nil {
		return err
	}

	ctx := cmd.Context()
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddFunc(cronFlag, func() { runOnce(ctx, cfg, logger) }); err != nil {
		return fmt.Errorf("failed to schedule update: %w", err)
	}

	c.Start()
	logger.Info("scheduler running", slog.String("cron", cronFlag))

	<-ctx.Done()
	logger.Info("stopping scheduler")
	<-c.Stop().Done()
	return nil
}

// runOnce rebuilds the pipeline so relative --since values move with the clock.
func runOnce(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	p, err := newPipeline(cfg, logger, time.Now())
	if err != nil {
		logger.Error("failed to set up update", slog.Any("error", err))
		return
	}
	if _, err := p.Run(ctx); err != nil {
		logger.Error("update failed", slog.Any("error", err))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
