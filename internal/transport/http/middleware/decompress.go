package middleware

import (
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/alokemajumder/rrweb-server/internal/logger"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/response"
)

type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (b gzipBody) Close() error {
	_ = b.Reader.Close()
	return b.raw.Close()
}

// Decompress inflates gzip request bodies. The inflated stream is held to
// maxBytes as well, so a small compressed body cannot expand past the limit.
func Decompress(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch enc := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding"))); enc {
			case "", "identity":
				next.ServeHTTP(w, r)
				return
			case "gzip", "x-gzip":
			default:
				response.Fail(w, http.StatusUnsupportedMediaType, "unsupported content encoding")
				return
			}

			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				logger.Ctx(r.Context()).Warn().Err(err).Msg("bad gzip request body")
				response.Fail(w, http.StatusBadRequest, "invalid payload")
				return
			}

			r.Body = http.MaxBytesReader(w, gzipBody{Reader: gz, raw: r.Body}, maxBytes)
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1

			next.ServeHTTP(w, r)
		})
	}
}
