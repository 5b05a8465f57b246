package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"papermirror/internal/shared/logger"
)

// State names where a resource's transfer currently stands. Succeeded and
// Exhausted are terminal.
type State int

const (
	StatePending State = iota
	StateResolving
	StateDownloading
	StateSucceeded
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolving:
		return "resolving"
	case StateDownloading:
		return "downloading"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Link is one labeled download alternative for a resource. Order across a
// resource's links is priority order, not arrival order.
type Link struct {
	Label        string
	RawURL       string
	NeedsResolve bool // the URL is an interstitial page, not the file itself
}

// Outcome records one attempted link. Outcomes are never mutated once
// recorded.
type Outcome struct {
	Label   string
	Success bool
	Path    string // final file path, set on success
	Reason  string // failure reason otherwise
}

// Report aggregates every attempt made for one resource, in attempt order.
// It is the authoritative output of a transfer regardless of terminal state;
// at most one outcome in it is successful.
type Report struct {
	RunID    string
	State    State
	Outcomes []Outcome
}

// Succeeded returns the successful outcome, or nil.
func (r *Report) Succeeded() *Outcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].Success {
			return &r.Outcomes[i]
		}
	}
	return nil
}

// Resolver turns an interstitial link into its effective direct URL.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Engine attempts a resource's links strictly one at a time until the first
// success. A failed resolution or download advances to the next link; no
// link is ever retried. Links whose label is in the preferred set are tried
// before all others.
type Engine struct {
	client    *http.Client
	resolver  Resolver
	preferred []string
}

func NewEngine(client *http.Client, resolver Resolver, preferred []string) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{
		client:    client,
		resolver:  resolver,
		preferred: preferred,
	}
}

// Transfer works through links in priority order, downloading the first one
// that resolves and streams to destPath successfully.
func (e *Engine) Transfer(ctx context.Context, links []Link, destPath string) *Report {
	l := logger.WithComponent("Transfer/Engine")

	report := &Report{
		RunID: uuid.New().String(),
		State: StatePending,
	}

	for _, link := range orderLinks(links, e.preferred) {
		effectiveURL := link.RawURL

		if link.NeedsResolve {
			report.State = StateResolving
			l.Debug().Str("label", link.Label).Str("url", link.RawURL).Msg("Resolving interstitial link...")

			resolved, err := e.resolver.Resolve(ctx, link.RawURL)
			if err != nil {
				l.Warn().Str("label", link.Label).Err(err).Msg("Resolution failed, advancing to next link.")
				report.Outcomes = append(report.Outcomes, Outcome{
					Label:  link.Label,
					Reason: fmt.Sprintf("resolution failed: %v", err),
				})
				continue
			}
			effectiveURL = resolved
		}

		report.State = StateDownloading
		l.Debug().Str("label", link.Label).Str("url", effectiveURL).Msg("Downloading...")

		if err := e.download(ctx, effectiveURL, destPath); err != nil {
			l.Warn().Str("label", link.Label).Err(err).Msg("Download failed, advancing to next link.")
			report.Outcomes = append(report.Outcomes, Outcome{
				Label:  link.Label,
				Reason: err.Error(),
			})
			continue
		}

		report.State = StateSucceeded
		report.Outcomes = append(report.Outcomes, Outcome{
			Label:   link.Label,
			Success: true,
			Path:    destPath,
		})
		l.Info().Str("label", link.Label).Str("path", destPath).Msg("Transfer succeeded.")
		return report
	}

	report.State = StateExhausted
	l.Warn().Int("attempted", len(report.Outcomes)).Msg("Every link failed; transfer exhausted.")
	return report
}

// download streams the response body to destPath in 8 KiB chunks, writing
// through a temp file so a partial download never lands at the final path.
func (e *Engine) download(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("received status %d from %s", resp.StatusCode, rawURL)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	tmpPath := destPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	buf := make([]byte, 8192)
	_, copyErr := io.CopyBuffer(out, resp.Body, buf)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}

	return os.Rename(tmpPath, destPath)
}

// orderLinks places preferred-label links first, in preferred-list order,
// then everything else in input order. Relative order within each group is
// preserved.
func orderLinks(links []Link, preferred []string) []Link {
	taken := make([]bool, len(links))
	ordered := make([]Link, 0, len(links))

	for _, label := range preferred {
		for i, link := range links {
			if !taken[i] && link.Label == label {
				ordered = append(ordered, link)
				taken[i] = true
			}
		}
	}
	for i, link := range links {
		if !taken[i] {
			ordered = append(ordered, link)
		}
	}
	return ordered
}
