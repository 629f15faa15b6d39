package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yuan-rate-bot/internal/series"
)

// RecordFetcher retrieves raw rate records for an inclusive date window.
type RecordFetcher interface {
	FetchRecords(ctx context.Context, from, to time.Time) ([]series.RawRecord, error)
}

// ErrFetch matches any FetchError via errors.Is.
var ErrFetch = errors.New("fetcher: fetch failed")

// FetchError wraps transport, status and payload failures of the feed.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrFetch) match.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
