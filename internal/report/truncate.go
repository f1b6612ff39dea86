package report

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

const truncationMarker = "..."

// ErrInvalidArgument is returned when a Truncator cannot hold the marker.
var ErrInvalidArgument = errors.New("invalid argument")

// Truncator bounds display lines to a maximum number of runes.
type Truncator struct {
	max int
}

func NewTruncator(maxLength int) (*Truncator, error) {
	if maxLength < len(truncationMarker) {
		return nil, goerr.Wrap(ErrInvalidArgument, "max length must fit the truncation marker",
			goerr.V("max_length", maxLength),
			goerr.V("min", len(truncationMarker)))
	}
	return &Truncator{max: maxLength}, nil
}

// Truncate returns text unchanged if it fits, otherwise its first max-3 runes
// followed by "...".
func (t *Truncator) Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= t.max {
		return text
	}
	return string(runes[:t.max-len(truncationMarker)]) + truncationMarker
}
