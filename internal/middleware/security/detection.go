package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

const (
	maxURLLength      = 2048
	maxForwardingHops = 5
)

var (
	scanPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb",
		"masscan", "zgrab", "scanner",
	}
	unusualMethods = map[string]bool{"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true}
)

// rule flags a request and names why.
type rule struct {
	reason string
	match  func(r *http.Request) bool
}

var rules = []rule{
	{"scan pattern in path", func(r *http.Request) bool { return containsAny(strings.ToLower(r.URL.Path), scanPatterns) }},
	{"scan pattern in query", func(r *http.Request) bool { return containsAny(strings.ToLower(r.URL.RawQuery), scanPatterns) }},
	{"scanner user agent", func(r *http.Request) bool {
		return containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents)
	}},
	{"unusual method", func(r *http.Request) bool { return unusualMethods[r.Method] }},
	{"url too long", func(r *http.Request) bool { return len(r.URL.String()) > maxURLLength }},
	{"forwarding chain too long", func(r *http.Request) bool {
		return strings.Count(r.Header.Get("X-Forwarded-For"), ",") > maxForwardingHops
	}},
}

func containsAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// DetectionMetrics counts rejected requests and unparseable peer addresses.
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector rejects scanner traffic and resolves the client address behind
// trusted proxies.
type Detector struct {
	suspicious     atomic.Int64
	invalidIPs     atomic.Int64
	trustedProxies []netip.Prefix
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("::1/128"),
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("192.168.0.0/16"),
		},
	}
}

// AddTrustedProxy trusts forwarding headers sent from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, p.Masked())
	return nil
}

// Check returns the reason r looks hostile, or "" when it does not.
func (d *Detector) Check(r *http.Request) string {
	for _, rl := range rules {
		if rl.match(r) {
			d.suspicious.Add(1)
			return rl.reason
		}
	}
	return ""
}

// ExtractClientIP returns the peer address, or the first valid forwarded
// address when the peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		d.invalidIPs.Add(1)
		return host
	}
	if !d.trusted(peer.Unmap()) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return host
}

func (d *Detector) trusted(ip netip.Addr) bool {
	for _, p := range d.trustedProxies {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIPs.Load(),
	}
}

// Middleware answers flagged requests with 400 and reports them through
// onSuspicious when it is not nil.
func (d *Detector) Middleware(onSuspicious func(r *http.Request, clientIP, reason string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := d.Check(r)
			if reason == "" {
				next.ServeHTTP(w, r)
				return
			}
			if onSuspicious != nil {
				onSuspicious(r, d.ExtractClientIP(r), reason)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Bad request"}` + "\n"))
		})
	}
}
