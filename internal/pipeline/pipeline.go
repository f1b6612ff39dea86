package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"activitybox/internal/github"
	"activitybox/internal/report"
)

// EventSource reads a user's public events feed, most recent first.
type EventSource interface {
	FetchEvents(ctx context.Context, username string, maxPage int) ([]report.Activity, error)
}

// GistStore reads and writes one file of a gist.
type GistStore interface {
	GetGist(ctx context.Context, gistID, filename string) (*github.GistFile, error)
	UpdateGist(ctx context.Context, gistID, filename, content string) error
}

type Config struct {
	Username      string
	GistID        string
	GistFilename  string
	MaxPage       int
	MaxActivities int
	MaxLength     int
	Rules         []report.Rule
	Since         time.Time
	DryRun        bool
}

type Outcome struct {
	Fetched  int
	Skipped  int
	Lines    []string
	Document string
	// Changed is true when Document differs from the gist content.
	Changed bool
	// Updated is true when the gist was written.
	Updated bool
}

type Pipeline struct {
	cfg       Config
	events    EventSource
	gists     GistStore
	formatter *report.Formatter
	truncator *report.Truncator
	logger    *slog.Logger
}

// New validates cfg. Rules defaults to report.DefaultRules.
func New(cfg Config, events EventSource, gists GistStore, logger *slog.Logger) (*Pipeline, error) {
	if cfg.MaxActivities < 1 {
		return nil, goerr.Wrap(report.ErrInvalidArgument, "max activities must be positive",
			goerr.V("max_activities", cfg.MaxActivities))
	}
	if cfg.MaxPage < 1 {
		return nil, goerr.Wrap(report.ErrInvalidArgument, "max page must be positive",
			goerr.V("max_page", cfg.MaxPage))
	}

	truncator, err := report.NewTruncator(cfg.MaxLength)
	if err != nil {
		return nil, err
	}

	rules := cfg.Rules
	if rules == nil {
		rules = report.DefaultRules
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		cfg:       cfg,
		events:    events,
		gists:     gists,
		formatter: report.NewFormatter(rules),
		truncator: truncator,
		logger:    logger,
	}, nil
}

// Run fetches the feed, builds the document and writes it to the gist if it
// changed. The gist is only written after everything else succeeded.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	p.logger.Debug("getting activity", slog.String("username", p.cfg.Username))

	activities, err := p.events.FetchEvents(ctx, p.cfg.Username, p.cfg.MaxPage)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch activity", goerr.V("username", p.cfg.Username))
	}
	p.logger.Info("found activities", slog.Int("count", len(activities)))

	summary := report.Generate(activities, report.Options{
		Formatter: p.formatter,
		Truncator: p.truncator,
		MaxLines:  p.cfg.MaxActivities,
		Since:     p.cfg.Since,
	})

	for _, skip := range summary.Skipped {
		p.logger.Warn("skipping malformed event",
			slog.String("kind", string(skip.Activity.Kind)),
			slog.String("repo", skip.Activity.Repo),
			slog.Any("error", skip.Err))
	}
	p.logger.Info("found interesting activities", slog.Int("count", len(summary.Lines)))
	for _, line := range summary.Lines {
		p.logger.Info("activity", slog.String("line", line))
	}

	out := &Outcome{
		Fetched:  len(activities),
		Skipped:  len(summary.Skipped),
		Lines:    summary.Lines,
		Document: summary.Document,
	}

	current, err := p.gists.GetGist(ctx, p.cfg.GistID, p.cfg.GistFilename)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read gist", goerr.V("gist_id", p.cfg.GistID))
	}

	if current.Content == summary.Document {
		p.logger.Info("gist is up to date", slog.String("gist_id", p.cfg.GistID))
		return out, nil
	}
	out.Changed = true

	if p.cfg.DryRun {
		p.logger.Info("dry run, not updating gist", slog.String("gist_id", p.cfg.GistID))
		return out, nil
	}

	if err := p.gists.UpdateGist(ctx, p.cfg.GistID, current.Filename, summary.Document); err != nil {
		return nil, goerr.Wrap(err, "failed to update gist",
			goerr.V("gist_id", p.cfg.GistID),
			goerr.V("filename", current.Filename))
	}
	out.Updated = true
	p.logger.Info("finished updating gist",
		slog.String("gist_id", p.cfg.GistID),
		slog.String("filename", current.Filename))

	return out, nil
}
