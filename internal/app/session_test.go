package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"papermirror/internal/shared/config"
	"papermirror/internal/shared/types"
	"papermirror/proxypool/model"
	"papermirror/proxypool/scraper"
	"papermirror/proxypool/storage"
)

// fakeSource serves a fixed candidate list, or a fixed error.
type fakeSource struct {
	name       string
	candidates []*model.Candidate
	err        error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]*model.Candidate, error) {
	return f.candidates, f.err
}

func (f *fakeSource) Name() string { return f.name }

func testConfig(proxyPath string) *types.Config {
	cfg := new(types.Config)
	config.ApplyDefaults(cfg)
	cfg.ProxyConf.File = proxyPath
	cfg.ProxyConf.SampleSize = 5
	cfg.ProxyConf.Concurrency = 2
	cfg.ProxyConf.ProbeTimeoutSeconds = 2
	return cfg
}

func TestDiscoverProxyPersistsWinner(t *testing.T) {
	// The test server doubles as the proxy: a plain-HTTP check URL makes
	// the prober send its GET straight to the proxy address.
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"origin": "1.2.3.4"}`))
	}))
	defer proxyServer.Close()

	proxyURL, err := url.Parse(proxyServer.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(proxyURL.Port())
	if err != nil {
		t.Fatal(err)
	}

	proxyPath := filepath.Join(t.TempDir(), "proxy.json")
	cfg := testConfig(proxyPath)
	cfg.ProxyConf.CheckURL = "http://check.example/ip"

	source := &fakeSource{
		name: "test-source",
		candidates: []*model.Candidate{
			{Addr: proxyURL.Hostname(), Port: port, Scheme: "http"},
		},
	}

	settings, err := DiscoverProxyWith(context.Background(), cfg, proxyPath, []scraper.Source{source})
	if err != nil {
		t.Fatalf("DiscoverProxyWith returned error: %v", err)
	}
	if settings == nil || !settings.Enabled {
		t.Fatal("expected enabled settings from a working candidate")
	}
	if settings.URL.Host != proxyURL.Host {
		t.Errorf("expected proxy %q, got %q", proxyURL.Host, settings.URL.Host)
	}

	// Both the choice and the diagnostic snapshot must be on disk.
	loaded, err := config.LoadProxy(proxyPath)
	if err != nil {
		t.Fatalf("persisted choice does not load back: %v", err)
	}
	if loaded.URL.String() != settings.URL.String() {
		t.Errorf("round trip changed the proxy URL: %q vs %q", settings.URL, loaded.URL)
	}
	if _, err := os.Stat(storage.SnapshotPath(proxyPath)); err != nil {
		t.Errorf("snapshot file missing: %v", err)
	}
}

func TestDiscoverProxyAllSourcesUnavailable(t *testing.T) {
	proxyPath := filepath.Join(t.TempDir(), "proxy.json")
	cfg := testConfig(proxyPath)

	srcErr := fmt.Errorf("%w: boom", scraper.ErrSourceUnavailable)
	sources := []scraper.Source{
		&fakeSource{name: "s1", err: srcErr},
		&fakeSource{name: "s2", err: srcErr},
	}

	_, err := DiscoverProxyWith(context.Background(), cfg, proxyPath, sources)
	if !errors.Is(err, scraper.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable when every source fails, got %v", err)
	}
}

func TestDiscoverProxyNoResponderIsNilNotError(t *testing.T) {
	proxyPath := filepath.Join(t.TempDir(), "proxy.json")
	cfg := testConfig(proxyPath)
	cfg.ProxyConf.CheckURL = "http://127.0.0.1:1/ip" // nothing listens here
	cfg.ProxyConf.ProbeTimeoutSeconds = 1

	source := &fakeSource{
		name: "test-source",
		candidates: []*model.Candidate{
			{Addr: "127.0.0.1", Port: 1, Scheme: "http"},
		},
	}

	settings, err := DiscoverProxyWith(context.Background(), cfg, proxyPath, []scraper.Source{source})
	if err != nil {
		t.Fatalf("an all-failing batch must not be an error, got %v", err)
	}
	if settings != nil {
		t.Errorf("expected nil settings, got %+v", settings)
	}
	if _, err := os.Stat(proxyPath); !os.IsNotExist(err) {
		t.Error("nothing may be persisted when no candidate responded")
	}
}

func TestBuildLinks(t *testing.T) {
	res := Resource{
		Name: "paper",
		Links: []ResourceLink{
			{Label: "GET", URL: "/ads.php?md5=abc"},
			{Label: "Mirror2", URL: "http://other.example/file.pdf"},
			{Label: "Main", URL: "http://main.example/lander", Resolve: true},
		},
	}

	links := buildLinks(res, "mirror.host")

	if links[0].RawURL != "https://mirror.host/ads.php?md5=abc" {
		t.Errorf("relative link not anchored to the mirror: %q", links[0].RawURL)
	}
	if !links[0].NeedsResolve {
		t.Error("relative links must be marked for resolution")
	}
	if links[1].RawURL != "http://other.example/file.pdf" || links[1].NeedsResolve {
		t.Errorf("absolute direct link must pass through unchanged: %+v", links[1])
	}
	if !links[2].NeedsResolve {
		t.Error("explicit resolve flag must be preserved")
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := sanitizeFilename(` A/B\C?D*E"F<G>H|I `)
	if got != "A_B_C_D_E_F_G_H_I" {
		t.Errorf("unexpected sanitized name: %q", got)
	}
}
