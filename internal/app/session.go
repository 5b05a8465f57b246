package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"papermirror/internal/mirror"
	"papermirror/internal/probe"
	"papermirror/internal/shared/config"
	"papermirror/internal/shared/logger"
	"papermirror/internal/shared/types"
	"papermirror/internal/transfer"
	"papermirror/proxypool/scorer"
	"papermirror/proxypool/scraper"
	"papermirror/proxypool/storage"
)

// Resource is one requested transfer: a name plus its labeled download
// links in priority order.
type Resource struct {
	Name  string         `json:"name"`
	Ext   string         `json:"ext,omitempty"`
	Links []ResourceLink `json:"links"`
}

// ResourceLink is one labeled alternative for a resource.
type ResourceLink struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Resolve bool   `json:"resolve,omitempty"` // URL is an interstitial page
}

// Session fixes the proxy configuration and the active mirror for one
// process invocation. All outbound HTTP calls, mirror probes and transfers
// included, go through the session's client.
type Session struct {
	cfg    *types.Config
	Proxy  *config.ProxySettings
	Mirror mirror.Endpoint
	client *http.Client
	engine *transfer.Engine
}

// NewSession loads (or discovers) the proxy configuration, configures the
// outbound client with it and probes the mirror list to fix the session's
// active endpoint.
func NewSession(ctx context.Context, cfg *types.Config) (*Session, error) {
	l := logger.WithComponent("App/Session")

	proxyPath := config.ResolveProxyPath(cfg.ProxyConf.File)
	settings, err := config.LoadProxy(proxyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load proxy configuration: %w", err)
	}

	if !settings.Enabled && cfg.ProxyConf.AutoDiscover {
		discovered, err := DiscoverProxy(ctx, cfg, proxyPath)
		if err != nil {
			l.Warn().Err(err).Msg("Proxy discovery failed; continuing without a proxy.")
		} else if discovered != nil {
			settings = discovered
		}
	}

	if settings.Enabled {
		l.Info().Str("proxy", settings.URL.String()).Str("source", settings.Source).Msg("Session proxy configured.")
	}

	transferTimeout := time.Duration(cfg.TransferConf.TimeoutSeconds) * time.Second
	transport, err := probe.Transport(settings.URL, transferTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to configure outbound transport: %w", err)
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   transferTimeout,
	}

	prober := probe.NewHTTPProber(time.Duration(cfg.MirrorConf.ProbeTimeoutSeconds) * time.Second)
	selector := mirror.NewSelector(prober, cfg.MirrorConf.ProbePath, settings.URL, mirror.FallbackFirstUnverified)
	endpoint, err := selector.Select(ctx, cfg.MirrorConf.HostList())
	if err != nil {
		return nil, err
	}

	resolver := transfer.NewPageResolver(client, cfg.TransferConf.ResolveMarker)
	engine := transfer.NewEngine(client, resolver, cfg.TransferConf.PreferredLabelList())

	return &Session{
		cfg:    cfg,
		Proxy:  settings,
		Mirror: endpoint,
		client: client,
		engine: engine,
	}, nil
}

// DiscoverProxy runs the source -> scorer -> persist pipeline over the
// default candidate sources.
func DiscoverProxy(ctx context.Context, cfg *types.Config, proxyPath string) (*config.ProxySettings, error) {
	excluded := cfg.ProxyConf.ExcludedRegionSet()
	sources := []scraper.Source{
		scraper.NewFreeProxyListSource("", excluded),
		scraper.NewSSLProxiesSource("", excluded),
	}
	return DiscoverProxyWith(ctx, cfg, proxyPath, sources)
}

// DiscoverProxyWith discovers, scores and persists a proxy from the given
// sources. It returns an error only when every candidate source was
// unavailable; an all-failing probe batch yields nil settings, which is an
// expected outcome under adverse network conditions.
func DiscoverProxyWith(ctx context.Context, cfg *types.Config, proxyPath string, sources []scraper.Source) (*config.ProxySettings, error) {
	l := logger.WithComponent("App/Discovery")

	prober := probe.NewHTTPProber(time.Duration(cfg.ProxyConf.ProbeTimeoutSeconds) * time.Second)
	sc := scorer.New(prober, cfg.ProxyConf.CheckURL, cfg.ProxyConf.SampleSize, cfg.ProxyConf.Concurrency)
	store := storage.NewFileStore(proxyPath)

	var lastErr error
	for _, source := range sources {
		candidates, err := source.Fetch(ctx)
		if err != nil {
			l.Warn().Err(err).Str("source", source.Name()).Msg("Candidate source unavailable, trying next.")
			lastErr = err
			continue
		}
		if len(candidates) == 0 {
			l.Info().Str("source", source.Name()).Msg("Source yielded no usable candidates.")
			continue
		}

		best, ranked := sc.DiscoverBest(ctx, candidates)
		if best == nil {
			l.Info().Str("source", source.Name()).Msg("No sampled candidate responded.")
			continue
		}

		entry := &types.ProxyEntry{
			Type: best.Scheme,
			Addr: best.Addr,
			Port: best.Port,
		}
		if err := store.SaveChoice(entry); err != nil {
			return nil, err
		}
		snap := &storage.Snapshot{
			Working: ranked,
			Source:  source.Name(),
		}
		if err := store.SaveSnapshot(snap); err != nil {
			l.Warn().Err(err).Msg("Failed to save discovery snapshot.")
		}

		proxyURL, err := config.BuildProxyURL(entry)
		if err != nil {
			return nil, err
		}
		return &config.ProxySettings{Enabled: true, URL: proxyURL, Source: proxyPath}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// Fetch runs the fallback transfer for one resource against the session's
// active mirror.
func (s *Session) Fetch(ctx context.Context, res Resource) *transfer.Report {
	links := buildLinks(res, s.Mirror.Host)

	ext := res.Ext
	if ext == "" {
		ext = "pdf"
	}
	dest := filepath.Join(s.cfg.TransferConf.DestDir, sanitizeFilename(res.Name)+"."+ext)

	return s.engine.Transfer(ctx, links, dest)
}

// Run fetches every resource sequentially and returns the per-resource
// reports in input order.
func (s *Session) Run(ctx context.Context, resources []Resource) []*transfer.Report {
	reports := make([]*transfer.Report, 0, len(resources))
	for _, res := range resources {
		reports = append(reports, s.Fetch(ctx, res))
	}
	return reports
}

// buildLinks converts a resource's links into engine links. A relative URL
// is an interstitial page on the active mirror and always needs resolution.
func buildLinks(res Resource, mirrorHost string) []transfer.Link {
	links := make([]transfer.Link, 0, len(res.Links))
	for _, rl := range res.Links {
		link := transfer.Link{
			Label:        rl.Label,
			RawURL:       rl.URL,
			NeedsResolve: rl.Resolve,
		}
		if strings.HasPrefix(rl.URL, "/") {
			link.RawURL = "https://" + mirrorHost + rl.URL
			link.NeedsResolve = true
		}
		links = append(links, link)
	}
	return links
}

var filenameSanitizer = strings.NewReplacer(
	"\\", "_", "/", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

func sanitizeFilename(name string) string {
	return filenameSanitizer.Replace(strings.TrimSpace(name))
}
