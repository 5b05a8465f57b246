package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"papermirror/internal/shared/types"
)

// EnvProxyFile, when set, overrides the configured proxy config file path.
const EnvProxyFile = "PAPERMIRROR_PROXY_FILE"

// ErrMalformed reports a proxy configuration that cannot produce a usable
// proxy URL: a missing address or port, or a lone credential field.
var ErrMalformed = errors.New("malformed proxy configuration")

// ProxySettings is the normalized, in-memory form of the persisted proxy
// configuration. A disabled settings value means outbound calls go direct.
type ProxySettings struct {
	Enabled bool
	URL     *url.URL
	Source  string // path the settings were loaded from
}

// ResolveProxyPath applies the environment override to the configured path.
func ResolveProxyPath(configured string) string {
	if env := os.Getenv(EnvProxyFile); env != "" {
		return env
	}
	return configured
}

// LoadProxy reads the proxy configuration file at path. A missing file is not
// an error: it yields disabled settings so the caller can decide whether to
// run discovery. A file that exists but cannot produce a proxy URL is a hard
// error, since silently proceeding would misroute every outbound call.
func LoadProxy(path string) (*ProxySettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProxySettings{Enabled: false, Source: path}, nil
		}
		return nil, err
	}

	entry, err := entryFromPayload(data)
	if err != nil {
		return nil, err
	}

	proxyURL, err := BuildProxyURL(entry)
	if err != nil {
		return nil, err
	}

	return &ProxySettings{Enabled: true, URL: proxyURL, Source: path}, nil
}

// entryFromPayload accepts either a single JSON object or an array of
// objects, in which case the first entry wins.
func entryFromPayload(data []byte) (*types.ProxyEntry, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if strings.HasPrefix(trimmed, "[") {
		var entries []types.ProxyEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: proxy list is empty", ErrMalformed)
		}
		return &entries[0], nil
	}

	var entry types.ProxyEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &entry, nil
}

// BuildProxyURL constructs the effective proxy URL from a persisted entry.
func BuildProxyURL(entry *types.ProxyEntry) (*url.URL, error) {
	if entry.Addr == "" || entry.Port == 0 {
		return nil, fmt.Errorf("%w: both 'addr' and 'port' are required", ErrMalformed)
	}

	if (entry.Username == "") != (entry.Password == "") {
		return nil, fmt.Errorf("%w: username and password must be set together or not at all", ErrMalformed)
	}

	scheme := strings.ToLower(entry.Type)
	if scheme == "" {
		scheme = "http"
	}

	proxyURL := &url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", entry.Addr, entry.Port),
	}
	if entry.Username != "" {
		proxyURL.User = url.UserPassword(entry.Username, entry.Password)
	}
	return proxyURL, nil
}
