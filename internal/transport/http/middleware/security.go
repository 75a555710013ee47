package middleware

import "net/http"

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

	// Recorder and playback pages load the rrweb bundles from a CDN and
	// render replays in an iframe.
	pageCSP = "default-src 'self'; script-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; " +
		"style-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; img-src 'self' data: blob: https:; " +
		"connect-src 'self' https:; frame-src 'self' blob:; frame-ancestors 'self'; base-uri 'self'"
)

func SecurityHeaders(next http.Handler) http.Handler {
	return securityHeaders(apiCSP, "DENY", next)
}

// PageSecurityHeaders is SecurityHeaders for the static HTML pages.
func PageSecurityHeaders(next http.Handler) http.Handler {
	return securityHeaders(pageCSP, "SAMEORIGIN", next)
}

func securityHeaders(csp, frameOptions string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", csp)

		// HSTS: 1 year, include subdomains
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", frameOptions)
		h.Set("Referrer-Policy", "no-referrer")
		// recorders post from other origins
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=(), bluetooth=()")

		next.ServeHTTP(w, r)
	})
}
