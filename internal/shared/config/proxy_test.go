package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"papermirror/internal/shared/types"
)

func TestBuildProxyURL(t *testing.T) {
	entry := &types.ProxyEntry{Type: "https", Addr: "1.2.3.4", Port: 8080}
	proxyURL, err := BuildProxyURL(entry)
	if err != nil {
		t.Fatalf("BuildProxyURL returned error: %v", err)
	}
	if proxyURL.String() != "https://1.2.3.4:8080" {
		t.Errorf("unexpected proxy URL: %q", proxyURL.String())
	}
}

func TestBuildProxyURLDefaultsScheme(t *testing.T) {
	proxyURL, err := BuildProxyURL(&types.ProxyEntry{Addr: "1.2.3.4", Port: 3128})
	if err != nil {
		t.Fatalf("BuildProxyURL returned error: %v", err)
	}
	if proxyURL.Scheme != "http" {
		t.Errorf("expected http scheme default, got %q", proxyURL.Scheme)
	}
}

func TestBuildProxyURLWithCredentials(t *testing.T) {
	entry := &types.ProxyEntry{Type: "http", Addr: "1.2.3.4", Port: 8080, Username: "u", Password: "p"}
	proxyURL, err := BuildProxyURL(entry)
	if err != nil {
		t.Fatalf("BuildProxyURL returned error: %v", err)
	}
	if proxyURL.String() != "http://u:p@1.2.3.4:8080" {
		t.Errorf("unexpected proxy URL: %q", proxyURL.String())
	}
}

func TestBuildProxyURLMissingPort(t *testing.T) {
	_, err := BuildProxyURL(&types.ProxyEntry{Type: "http", Addr: "1.2.3.4"})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for missing port, got %v", err)
	}
}

func TestBuildProxyURLLoneCredential(t *testing.T) {
	_, err := BuildProxyURL(&types.ProxyEntry{Type: "http", Addr: "1.2.3.4", Port: 8080, Username: "u"})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for lone username, got %v", err)
	}

	_, err = BuildProxyURL(&types.ProxyEntry{Type: "http", Addr: "1.2.3.4", Port: 8080, Password: "p"})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for lone password, got %v", err)
	}
}

func TestLoadProxyMissingFileIsDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.json")
	settings, err := LoadProxy(path)
	if err != nil {
		t.Fatalf("LoadProxy returned error: %v", err)
	}
	if settings.Enabled {
		t.Error("expected disabled settings for a missing file")
	}
	if settings.Source != path {
		t.Errorf("expected source %q, got %q", path, settings.Source)
	}
}

func TestLoadProxyObjectPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.json")
	payload := `{"type": "https", "addr": "9.9.9.9", "port": 8443}`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadProxy(path)
	if err != nil {
		t.Fatalf("LoadProxy returned error: %v", err)
	}
	if !settings.Enabled {
		t.Fatal("expected enabled settings")
	}
	if settings.URL.String() != "https://9.9.9.9:8443" {
		t.Errorf("unexpected proxy URL: %q", settings.URL.String())
	}
}

func TestLoadProxyArrayPayloadUsesFirstEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.json")
	payload := `[
  {"type": "http", "addr": "1.1.1.1", "port": 80},
  {"type": "http", "addr": "2.2.2.2", "port": 81}
]`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadProxy(path)
	if err != nil {
		t.Fatalf("LoadProxy returned error: %v", err)
	}
	if settings.URL.String() != "http://1.1.1.1:80" {
		t.Errorf("expected the first entry to win, got %q", settings.URL.String())
	}
}

func TestLoadProxyEmptyArrayIsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProxy(path); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for empty list, got %v", err)
	}
}

func TestLoadProxyGarbageIsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProxy(path); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for garbage payload, got %v", err)
	}
}

func TestResolveProxyPathEnvOverride(t *testing.T) {
	t.Setenv(EnvProxyFile, "/tmp/override.json")
	if got := ResolveProxyPath("configs/proxy.json"); got != "/tmp/override.json" {
		t.Errorf("expected env override to win, got %q", got)
	}
}

func TestResolveProxyPathDefault(t *testing.T) {
	t.Setenv(EnvProxyFile, "")
	if got := ResolveProxyPath("configs/proxy.json"); got != "configs/proxy.json" {
		t.Errorf("expected configured path, got %q", got)
	}
}
