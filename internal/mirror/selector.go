package mirror

import (
	"context"
	"errors"
	"net/url"

	"papermirror/internal/probe"
	"papermirror/internal/shared/logger"
)

// Endpoint is the single mirror host selected for a session. Verified is
// false when the host was returned by fallback policy rather than a
// successful probe; callers must treat such an endpoint as best-effort.
type Endpoint struct {
	Host     string
	Verified bool
}

// FallbackPolicy names what Select does when no candidate passes its probe.
type FallbackPolicy int

const (
	// FallbackFirstUnverified returns the first candidate in the list,
	// marked unverified. This keeps a session usable when every mirror is
	// temporarily unreachable, at the cost of a possibly dead host.
	FallbackFirstUnverified FallbackPolicy = iota

	// FallbackNone makes Select fail with ErrNoMirror instead.
	FallbackNone
)

// ErrNoMirror is returned under FallbackNone when no candidate responds.
var ErrNoMirror = errors.New("no mirror candidate responded")

// Selector picks the first healthy host from an ordered candidate list.
// Candidates are probed strictly in list order, one at a time: the goal is
// "first usable", not "fastest". Safe for repeated calls; it holds no state
// across them.
type Selector struct {
	prober    probe.Prober
	probePath string
	proxyURL  *url.URL
	policy    FallbackPolicy
}

func NewSelector(prober probe.Prober, probePath string, proxyURL *url.URL, policy FallbackPolicy) *Selector {
	return &Selector{
		prober:    prober,
		probePath: probePath,
		proxyURL:  proxyURL,
		policy:    policy,
	}
}

// Select probes hosts in order and returns the first one that answers the
// probe path with a successful response.
func (s *Selector) Select(ctx context.Context, hosts []string) (Endpoint, error) {
	l := logger.WithComponent("Mirror/Selector")

	if len(hosts) == 0 {
		return Endpoint{}, ErrNoMirror
	}

	for _, host := range hosts {
		result := s.prober.Probe(ctx, probe.Target{
			Ref:   host,
			URL:   "https://" + host + s.probePath,
			Proxy: s.proxyURL,
		})
		if result.Success {
			l.Info().Str("host", host).Dur("latency", result.Latency).Msg("Mirror selected.")
			return Endpoint{Host: host, Verified: true}, nil
		}
		l.Debug().Str("host", host).Msg("Mirror probe failed, trying next.")
	}

	if s.policy == FallbackNone {
		return Endpoint{}, ErrNoMirror
	}

	l.Warn().Str("host", hosts[0]).Msg("No mirror responded; falling back to first candidate unverified.")
	return Endpoint{Host: hosts[0], Verified: false}, nil
}
