package types

import "strings"

// MirrorConf configures mirror endpoint selection.
type MirrorConf struct {
	Hosts               string `ini:"hosts"`      // ordered, comma-separated candidate hostnames
	ProbePath           string `ini:"probe_path"` // low-cost path probed on each host
	ProbeTimeoutSeconds int    `ini:"probe_timeout_seconds"`
}

// HostList returns the ordered mirror hostnames.
func (m MirrorConf) HostList() []string {
	return splitList(m.Hosts)
}

// ProxyConf configures proxy persistence and auto-discovery.
type ProxyConf struct {
	File                string `ini:"file"` // path to proxy.json; PAPERMIRROR_PROXY_FILE overrides
	AutoDiscover        bool   `ini:"auto_discover"`
	SampleSize          int    `ini:"sample_size"`
	Concurrency         int    `ini:"concurrency"`
	ProbeTimeoutSeconds int    `ini:"probe_timeout_seconds"`
	CheckURL            string `ini:"check_url"` // echo-IP reachability target
	ExcludedRegions     string `ini:"excluded_regions"`
}

// ExcludedRegionSet returns the configured region codes as a lookup set.
func (p ProxyConf) ExcludedRegionSet() map[string]bool {
	set := make(map[string]bool)
	for _, code := range splitList(p.ExcludedRegions) {
		set[strings.ToUpper(code)] = true
	}
	return set
}

// TransferConf configures the fallback download engine.
type TransferConf struct {
	DestDir         string `ini:"dest_dir"`
	TimeoutSeconds  int    `ini:"timeout_seconds"`
	PreferredLabels string `ini:"preferred_labels"`
	ResolveMarker   string `ini:"resolve_marker"` // substring identifying the direct link on interstitial pages
}

// PreferredLabelList returns the link labels tried before all others.
func (t TransferConf) PreferredLabelList() []string {
	return splitList(t.PreferredLabels)
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config is the unified behavior configuration loaded from papermirror.ini.
type Config struct {
	MirrorConf   `ini:"mirror"`
	ProxyConf    `ini:"proxy"`
	TransferConf `ini:"transfer"`
	LogConf      `ini:"log"`
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
