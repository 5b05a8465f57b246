package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"papermirror/internal/shared/logger"
	"papermirror/proxypool/model"
)

const defaultSSLProxiesURL = "https://www.sslproxies.org/"

// SSLProxiesSource scrapes www.sslproxies.org, the sister site of
// free-proxy-list.net with the same table layout. Every listed proxy there
// is HTTPS-capable, so only the address, port and region filters apply.
type SSLProxiesSource struct {
	url      string
	excluded map[string]bool
}

func NewSSLProxiesSource(sourceURL string, excluded map[string]bool) *SSLProxiesSource {
	if sourceURL == "" {
		sourceURL = defaultSSLProxiesURL
	}
	return &SSLProxiesSource{
		url:      sourceURL,
		excluded: excluded,
	}
}

func (s *SSLProxiesSource) Name() string {
	return "sslproxies.org"
}

func (s *SSLProxiesSource) Fetch(ctx context.Context) ([]*model.Candidate, error) {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Info().Str("source", s.Name()).Msg("Fetching candidate listing...")

	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(20 * time.Second)

	var (
		mu         sync.Mutex
		candidates []*model.Candidate
		tableSeen  bool
		fetchErr   error
	)

	c.OnHTML("table tbody tr", func(e *colly.HTMLElement) {
		addr := strings.TrimSpace(e.ChildText("td:nth-child(1)"))
		portStr := strings.TrimSpace(e.ChildText("td:nth-child(2)"))
		countryCode := strings.ToUpper(strings.TrimSpace(e.ChildText("td:nth-child(3)")))

		mu.Lock()
		defer mu.Unlock()
		tableSeen = true

		if addr == "" || portStr == "" {
			return
		}
		if s.excluded[countryCode] {
			return
		}

		port, err := strconv.Atoi(portStr)
		if err != nil {
			l.Warn().Str("addr", addr).Str("port", portStr).Str("source", s.Name()).Msg("Failed to parse port, skipping.")
			return
		}

		candidates = append(candidates, &model.Candidate{
			Addr:        addr,
			Port:        port,
			Scheme:      "https",
			CountryCode: countryCode,
			Source:      s.Name(),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		l.Error().Err(err).Int("status_code", r.StatusCode).Str("source", s.Name()).Msg("Fetch request failed.")
		fetchErr = err
	})

	if err := c.Visit(s.url); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, fetchErr)
	}
	if !tableSeen {
		return nil, fmt.Errorf("%w: no proxy table recognized at %s", ErrSourceUnavailable, s.url)
	}

	l.Info().Int("count", len(candidates)).Str("source", s.Name()).Msg("Fetch finished.")
	return candidates, nil
}
