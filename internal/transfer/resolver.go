package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"papermirror/internal/shared/logger"
)

// ErrNoDirectLink reports an interstitial page without an extractable direct
// download link.
var ErrNoDirectLink = errors.New("no direct download link found on interstitial page")

// PageResolver resolves an interstitial link by fetching the landing page
// and taking the first anchor whose href contains the marker substring.
// Relative hrefs are absolutized against the page URL.
type PageResolver struct {
	client *http.Client
	marker string
}

func NewPageResolver(client *http.Client, marker string) *PageResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &PageResolver{
		client: client,
		marker: marker,
	}
}

func (r *PageResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	l := logger.WithComponent("Transfer/Resolver")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("interstitial page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, r.marker) {
			found = href
			return false
		}
		return true
	})

	if found == "" {
		return "", ErrNoDirectLink
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(found)
	if err != nil {
		return "", err
	}
	resolved := base.ResolveReference(ref).String()

	l.Debug().Str("page", rawURL).Str("direct", resolved).Msg("Resolved direct link.")
	return resolved, nil
}
