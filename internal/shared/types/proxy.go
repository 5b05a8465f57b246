package types

// ProxyEntry is the persisted proxy configuration record. It is written by
// the discovery pipeline and read back on subsequent runs before any fresh
// discovery is attempted.
//
// Username and Password must be both present or both absent; a lone
// credential is a configuration error.
type ProxyEntry struct {
	Type     string `json:"type"` // proxy scheme: "http", "https" or "socks5"
	Addr     string `json:"addr"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}
