package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	proxies := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8", "fd00::/8", "not-a-cidr"}}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		config     *pkghttp.IPConfig
		expected   string
	}{
		{"direct connection ignores headers", "203.0.113.9:5000", "1.2.3.4", "5.6.7.8", proxies, "203.0.113.9"},
		{"trusted proxy uses forwarded for", "10.1.2.3:443", "198.51.100.7, 10.1.2.3", "", proxies, "198.51.100.7"},
		{"trusted proxy skips junk entries", "10.1.2.3:443", "junk, 198.51.100.8", "", proxies, "198.51.100.8"},
		{"trusted proxy falls back to real ip", "10.1.2.3:443", "", "198.51.100.9", proxies, "198.51.100.9"},
		{"trusted ipv6 proxy", "[fd00::1]:443", "2001:db8::5", "", proxies, "2001:db8::5"},
		{"no config", "10.1.2.3:443", "198.51.100.7", "", nil, "10.1.2.3"},
		{"no port", "203.0.113.9", "", "", proxies, "203.0.113.9"},
		{"localhost spoof", "203.0.113.9:5000", "127.0.0.1", "", &pkghttp.IPConfig{}, "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.expected, pkghttp.ExtractClientIP(req, tt.config))
		})
	}
}
