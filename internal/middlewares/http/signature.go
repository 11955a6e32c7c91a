package http

import (
	"bytes"
	"net/http"
)

// Hasher signs a payload.
type Hasher interface {
	Hash(data []byte) string
}

// SignatureMiddleware buffers the response body and sets its signature in
// header. A nil hasher disables signing.
func SignatureMiddleware(hasher Hasher, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hasher == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &signingResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			body := rw.buf.Bytes()
			w.Header().Set(header, hasher.Hash(body))
			w.WriteHeader(rw.statusCode)
			w.Write(body)
		})
	}
}

type signingResponseWriter struct {
	http.ResponseWriter
	buf        bytes.Buffer
	statusCode int
}

func (w *signingResponseWriter) WriteHeader(code int) {
	w.statusCode = code
}

func (w *signingResponseWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}
