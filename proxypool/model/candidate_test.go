package model

import "testing"

func TestCandidateURL(t *testing.T) {
	cases := []struct {
		candidate Candidate
		want      string
	}{
		{Candidate{Addr: "1.2.3.4", Port: 8080, Scheme: "https"}, "http://1.2.3.4:8080"},
		{Candidate{Addr: "1.2.3.4", Port: 8080, Scheme: "http"}, "http://1.2.3.4:8080"},
		{Candidate{Addr: "1.2.3.4", Port: 1080, Scheme: "socks5"}, "socks5://1.2.3.4:1080"},
	}
	for _, tc := range cases {
		if got := tc.candidate.URL(); got != tc.want {
			t.Errorf("%s candidate: expected %q, got %q", tc.candidate.Scheme, tc.want, got)
		}
	}
}

func TestCandidateHostPort(t *testing.T) {
	c := Candidate{Addr: "9.9.9.9", Port: 3128}
	if got := c.HostPort(); got != "9.9.9.9:3128" {
		t.Errorf("unexpected host:port form: %q", got)
	}
}
