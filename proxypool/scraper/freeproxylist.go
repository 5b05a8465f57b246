package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"papermirror/internal/shared/logger"
	"papermirror/proxypool/model"
)

const defaultFreeProxyListURL = "https://free-proxy-list.net/"

// FreeProxyListSource scrapes the free-proxy-list.net table. Only candidates
// flagged as HTTPS-capable survive; the table's "Https" column is the
// transport flag.
type FreeProxyListSource struct {
	client   *http.Client
	url      string
	excluded map[string]bool
}

// NewFreeProxyListSource creates a source for the given listing URL. An
// empty sourceURL selects the default provider site.
func NewFreeProxyListSource(sourceURL string, excluded map[string]bool) *FreeProxyListSource {
	if sourceURL == "" {
		sourceURL = defaultFreeProxyListURL
	}
	return &FreeProxyListSource{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:      sourceURL,
		excluded: excluded,
	}
}

func (s *FreeProxyListSource) Name() string {
	return "free-proxy-list.net"
}

func (s *FreeProxyListSource) Fetch(ctx context.Context) ([]*model.Candidate, error) {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Info().Str("source", s.Name()).Msg("Fetching candidate listing...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: received status %d from %s", ErrSourceUnavailable, resp.StatusCode, s.Name())
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	table := doc.Find("table.table.table-striped.table-bordered")
	if table.Length() == 0 {
		table = doc.Find("table#proxylisttable")
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no proxy table recognized at %s", ErrSourceUnavailable, s.url)
	}

	body := table.Find("tbody")
	if body.Length() == 0 {
		body = table
	}

	var candidates []*model.Candidate
	body.Find("tr").Each(func(i int, row *goquery.Selection) {
		columns := row.Find("td")
		if columns.Length() < 7 {
			return
		}

		addr := strings.TrimSpace(columns.Eq(0).Text())
		portStr := strings.TrimSpace(columns.Eq(1).Text())
		countryCode := strings.ToUpper(strings.TrimSpace(columns.Eq(2).Text()))
		httpsSupport := strings.EqualFold(strings.TrimSpace(columns.Eq(6).Text()), "yes")

		if !httpsSupport || addr == "" || portStr == "" {
			return
		}
		if s.excluded[countryCode] {
			return
		}

		port, err := strconv.Atoi(portStr)
		if err != nil {
			l.Warn().Str("addr", addr).Str("port", portStr).Msg("Failed to parse port, skipping.")
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

	l.Info().Int("count", len(candidates)).Str("source", s.Name()).Msg("Fetch finished.")
	return candidates, nil
}
