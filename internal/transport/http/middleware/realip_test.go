package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	var seen string
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	})

	tests := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		want    string
	}{
		{
			name:   "no_trusted_proxies_keeps_socket_address",
			remote: "203.0.113.7:5000",
			want:   "203.0.113.7:5000",
		},
		{
			name:    "untrusted_peer_keeps_socket_address",
			trusted: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
			remote:  "203.0.113.7:5000",
			want:    "203.0.113.7:5000",
		},
		{
			name:    "trusted_peer_uses_forwarded_for",
			trusted: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
			remote:  "10.1.2.3:5000",
			want:    "198.51.100.20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", "198.51.100.20")

			TrustedRealIP(tt.trusted)(echo).ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}
