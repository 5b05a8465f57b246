package model

import "fmt"

// Candidate is an untested proxy endpoint harvested from a listing source.
// It is immutable once constructed; probing never mutates it.
type Candidate struct {
	Addr        string `json:"addr"`
	Port        int    `json:"port"`
	Scheme      string `json:"type"` // "http", "https" or "socks5"
	CountryCode string `json:"country_code,omitempty"`
	Source      string `json:"source,omitempty"` // listing site the candidate came from
}

// HostPort returns the candidate in "addr:port" form.
func (c *Candidate) HostPort() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

// URL returns the candidate's proxy URL. Listing sites advertise the proxy's
// TLS support via the scheme, but the proxy itself is always dialed over
// plain HTTP CONNECT unless it is a SOCKS5 endpoint.
func (c *Candidate) URL() string {
	scheme := "http"
	if c.Scheme == "socks5" {
		scheme = "socks5"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Addr, c.Port)
}
