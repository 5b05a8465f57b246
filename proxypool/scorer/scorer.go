package scorer

import (
	"context"
	"math/rand"
	"net/url"
	"sort"
	"sync"

	"papermirror/internal/probe"
	"papermirror/internal/shared/logger"
	"papermirror/proxypool/model"
)

const (
	defaultSampleSize  = 25
	defaultConcurrency = 10
)

// Scored is a candidate that answered its probe, with the measured latency.
type Scored struct {
	*model.Candidate
	SpeedMS int64 `json:"speed_ms"`
}

// Scorer probes a random sample of candidates concurrently against a fixed
// reachability target and ranks the responders by latency.
type Scorer struct {
	prober      probe.Prober
	checkURL    string
	sampleSize  int
	concurrency int
}

func New(prober probe.Prober, checkURL string, sampleSize, concurrency int) *Scorer {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Scorer{
		prober:      prober,
		checkURL:    checkURL,
		sampleSize:  sampleSize,
		concurrency: concurrency,
	}
}

// DiscoverBest returns the working candidates from a random sample, fastest
// first, plus the best one. A nil best means nothing in the sample
// responded; under adverse network conditions that is an expected outcome,
// not an error. Ranking waits for the whole batch: there is no early return
// on first success.
func (s *Scorer) DiscoverBest(ctx context.Context, candidates []*model.Candidate) (*Scored, []Scored) {
	l := logger.WithComponent("ProxyPool/Scorer")

	sample := s.sample(candidates)
	if len(sample) == 0 {
		return nil, nil
	}

	workers := s.concurrency
	if workers > len(sample) {
		workers = len(sample)
	}
	l.Info().Int("sample", len(sample)).Int("concurrency", workers).Msg("Starting probe batch...")

	var wg sync.WaitGroup
	resultsChan := make(chan Scored, len(sample))
	semaphore := make(chan struct{}, workers)

	for _, cand := range sample {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(c *model.Candidate) {
			defer wg.Done()
			defer func() { <-semaphore }()

			proxyURL, err := url.Parse(c.URL())
			if err != nil {
				return
			}
			result := s.prober.Probe(ctx, probe.Target{
				Ref:   c.HostPort(),
				URL:   s.checkURL,
				Proxy: proxyURL,
			})
			if result.Success {
				resultsChan <- Scored{Candidate: c, SpeedMS: result.Latency.Milliseconds()}
			}
		}(cand)
	}

	wg.Wait()
	close(resultsChan)

	ranked := make([]Scored, 0, len(sample))
	for scored := range resultsChan {
		ranked = append(ranked, scored)
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].SpeedMS < ranked[j].SpeedMS
	})

	if len(ranked) == 0 {
		l.Warn().Msg("No candidate in the sample responded.")
		return nil, nil
	}

	l.Info().Int("working", len(ranked)).Str("best", ranked[0].HostPort()).Int64("speed_ms", ranked[0].SpeedMS).Msg("Probe batch finished.")
	return &ranked[0], ranked
}

// sample draws up to sampleSize candidates uniformly at random, bounding the
// cost of a discovery run regardless of how large the listing was.
func (s *Scorer) sample(candidates []*model.Candidate) []*model.Candidate {
	if len(candidates) <= s.sampleSize {
		out := make([]*model.Candidate, len(candidates))
		copy(out, candidates)
		return out
	}

	out := make([]*model.Candidate, 0, s.sampleSize)
	for _, idx := range rand.Perm(len(candidates))[:s.sampleSize] {
		out = append(out, candidates[idx])
	}
	return out
}
