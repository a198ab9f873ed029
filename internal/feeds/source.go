package feeds

import (
	"context"
	"fmt"

	"github.com/safeahead/hazard-alerts/internal/models"
)

// Source is the single capability a feed must provide. New feeds are added
// by implementing Fetch; the poller never needs to know what is behind it.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Event, error)
}

// FetchError reports that a whole fetch failed: network error, timeout, or
// a response envelope that could not be decoded. Individual bad records
// inside an otherwise valid envelope are skipped, not reported here.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func fetchErr(source string, format string, args ...any) *FetchError {
	return &FetchError{Source: source, Err: fmt.Errorf(format, args...)}
}
