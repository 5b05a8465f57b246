package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	xproxy "golang.org/x/net/proxy"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// Target describes one reachability check: an absolute URL, optionally
// fetched through a proxy, identified by Ref in the result.
type Target struct {
	Ref   string   // identifier carried into the result; defaults to URL
	URL   string   // absolute URL to fetch
	Proxy *url.URL // optional proxy the request is routed through
}

// Result is the outcome of a single probe attempt. It is never mutated after
// creation. Latency is wall-clock from request start to response completion
// and is only recorded on success.
type Result struct {
	Ref       string        `json:"ref"`
	Success   bool          `json:"success"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Prober issues one bounded-time liveness check. Network failures of any
// kind are folded into Success=false; Probe never returns an error.
type Prober interface {
	Probe(ctx context.Context, target Target) Result
}

// HTTPProber probes by issuing an HTTP GET and requiring a 2xx response.
type HTTPProber struct {
	timeout time.Duration
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPProber{timeout: timeout}
}

func (p *HTTPProber) Probe(ctx context.Context, target Target) Result {
	res := Result{Ref: target.Ref, CheckedAt: time.Now()}
	if res.Ref == "" {
		res.Ref = target.URL
	}

	transport, err := Transport(target.Proxy, p.timeout)
	if err != nil {
		return res
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   p.timeout,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return res
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return res
	}
	defer resp.Body.Close()

	// Drain the body so latency covers response completion, not just headers.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return res
	}

	res.Success = true
	res.Latency = time.Since(start)
	return res
}

// Transport builds an http.Transport routed through proxyURL. A nil proxyURL
// yields a direct transport. SOCKS5 proxies are dialed via a SOCKS5 dialer;
// everything else uses HTTP CONNECT.
func Transport(proxyURL *url.URL, timeout time.Duration) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout:   timeout,
		IdleConnTimeout:       timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL == nil {
		return transport, nil
	}

	if proxyURL.Scheme == "socks5" {
		var auth *xproxy.Auth
		if user := proxyURL.User; user != nil {
			password, _ := user.Password()
			auth = &xproxy.Auth{User: user.Username(), Password: password}
		}
		socksDialer, err := xproxy.SOCKS5("tcp", proxyURL.Host, auth, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = socksDialer.(xproxy.ContextDialer).DialContext
		return transport, nil
	}

	transport.Proxy = http.ProxyURL(proxyURL)
	return transport, nil
}
