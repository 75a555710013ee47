package middleware

import (
	"net/http"

	"github.com/alokemajumder/rrweb-server/internal/transport/http/response"
)

// DefaultBodyLimit is 1 MiB.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit rejects bodies over maxBytes. A declared Content-Length over the
// limit fails here; chunked bodies fail when the handler reads past it.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				response.Fail(w, http.StatusRequestEntityTooLarge, response.MsgBodyTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
