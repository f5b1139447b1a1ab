package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties", nil))
	for key, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Cache-Control":           "no-store",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	} {
		if got := rec.Header().Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Errorf("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/properties", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{"direct", "203.0.113.5:4000", "", "", "203.0.113.5"},
		{"untrusted proxy headers ignored", "203.0.113.5:4000", "198.51.100.1", "", "203.0.113.5"},
		{"trusted proxy forwarded for", "10.0.0.2:4000", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:4000", "", "198.51.100.7", "198.51.100.7"},
		{"trusted proxy garbage header", "192.168.1.1:4000", "not-an-ip", "", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Fatalf("ExtractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector()
	var flagged []string
	h := d.Middleware(func(r *http.Request, ip, reason string) { flagged = append(flagged, reason) })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	tests := []struct {
		name      string
		method    string
		target    string
		userAgent string
		want      int
	}{
		{"normal api call", http.MethodGet, "/api/financial/summary?dateRange=thisMonth", "curl/8.5.0", http.StatusOK},
		{"scanner path", http.MethodGet, "/wp-admin/install.php", "", http.StatusBadRequest},
		{"dotenv lookup", http.MethodGet, "/.env", "", http.StatusBadRequest},
		{"scanner agent", http.MethodGet, "/api/properties", "sqlmap/1.7", http.StatusBadRequest},
		{"trace method", "TRACE", "/api/properties", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.userAgent != "" {
				r.Header.Set("User-Agent", tt.userAgent)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if len(flagged) != 4 || d.GetMetrics().SuspiciousRequests != 4 {
		t.Fatalf("flagged %v, metrics %+v", flagged, d.GetMetrics())
	}
	if flagged[2] != "scanner user agent" || flagged[3] != "unusual method" {
		t.Fatalf("reasons = %v", flagged)
	}
}

func TestCheckForwardingChain(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
	if got := d.Check(r); got != "forwarding chain too long" {
		t.Fatalf("Check = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	if got := d.Check(r); got != "" {
		t.Fatalf("short chain flagged as %q", got)
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("bogus"); err == nil {
		t.Fatalf("expected error for invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("add: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:1000"
	r.Header.Set("X-Forwarded-For", "198.51.100.4")
	if got := d.ExtractClientIP(r); got != "198.51.100.4" {
		t.Fatalf("got %q", got)
	}
}
