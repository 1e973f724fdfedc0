package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/EEWBot/webhook-benchmark/internal/utils"
)

// VerifyHashMiddleware checks the HMAC of request bodies and signs responses.
// With an empty key it is a no-op. Requests that carry a body must be signed.
func VerifyHashMiddleware(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			sig := r.Header.Get(utils.HashHeader)
			if sig == "" && len(bodyBytes) > 0 {
				http.Error(w, "missing hash", http.StatusBadRequest)
				return
			}
			if sig != "" && !utils.VerifyHash(bodyBytes, key, sig) {
				http.Error(w, "invalid hash", http.StatusBadRequest)
				return
			}

			capture := &responseCapture{header: http.Header{}, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			for k, v := range capture.header {
				w.Header()[k] = v
			}
			w.Header().Set(utils.HashHeader, utils.CalculateHash(capture.body.Bytes(), key))
			w.WriteHeader(capture.status)
			_, _ = w.Write(capture.body.Bytes())
		})
	}
}

// responseCapture buffers the whole response so the signature header can precede the body.
type responseCapture struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (r *responseCapture) Header() http.Header         { return r.header }
func (r *responseCapture) WriteHeader(code int)        { r.status = code }
func (r *responseCapture) Write(b []byte) (int, error) { return r.body.Write(b) }
