package report

import (
	"strings"
	"time"
)

// Placeholder is the document written when no activity survives filtering.
const Placeholder = "☕ No activities recently..."

type Options struct {
	Formatter *Formatter
	Truncator *Truncator
	// MaxLines caps the number of lines in the document.
	MaxLines int
	// Since drops activities created before it. Zero keeps everything.
	Since time.Time
}

// Skip records an interesting activity that could not be formatted.
type Skip struct {
	Activity Activity
	Err      error
}

type Summary struct {
	Lines    []string
	Document string
	Skipped  []Skip
}

// Generate turns feed activities, most recent first, into the gist document.
func Generate(activities []Activity, opts Options) Summary {
	var s Summary

	for _, a := range activities {
		if len(s.Lines) >= opts.MaxLines {
			break
		}
		if !a.IsInteresting() {
			continue
		}
		if !opts.Since.IsZero() && a.CreatedAt.Before(opts.Since) {
			continue
		}

		line, ok, err := opts.Formatter.Format(a)
		if err != nil {
			s.Skipped = append(s.Skipped, Skip{Activity: a, Err: err})
			continue
		}
		if !ok {
			continue
		}

		line = opts.Truncator.Truncate(line)
		if line == "" {
			continue
		}
		s.Lines = append(s.Lines, line)
	}

	if len(s.Lines) == 0 {
		s.Document = Placeholder
	} else {
		s.Document = strings.Join(s.Lines, "\n")
	}
	return s
}
