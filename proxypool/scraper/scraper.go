package scraper

import (
	"context"
	"errors"

	"papermirror/proxypool/model"
)

// ErrSourceUnavailable reports that a candidate listing could not be fetched
// or that no proxy table was recognized in the response. It is a hard
// failure so callers can tell "source parsing broke" from "no candidates
// survived filtering".
var ErrSourceUnavailable = errors.New("proxy source unavailable")

// Source fetches one proxy listing and parses it into normalized candidates.
// Implementations apply the static exclusion rules themselves: candidates
// without the required transport support, without an address or port, or
// from an excluded region never leave the source.
type Source interface {
	Fetch(ctx context.Context) ([]*model.Candidate, error)

	// Name returns the source's name, used for logging and the discovery
	// snapshot.
	Name() string
}
