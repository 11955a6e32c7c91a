package http

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"strconv"
	"strings"
)

// GzipMiddleware compresses JSON and text responses for clients that accept gzip.
//
// The body is buffered so that Content-Length can be set on the compressed
// payload. Other content types and already encoded bodies pass through unchanged.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gzw := newGzipBufferResponseWriter(w)
		next.ServeHTTP(gzw, r)
		_ = gzw.flush()
	})
}

// gzipBufferResponseWriter buffers status and body until flush.
type gzipBufferResponseWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	statusCode  int
	wroteHeader bool
}

func newGzipBufferResponseWriter(w http.ResponseWriter) *gzipBufferResponseWriter {
	return &gzipBufferResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *gzipBufferResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
}

func (w *gzipBufferResponseWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *gzipBufferResponseWriter) flush() error {
	body := w.buf.Bytes()

	encoded := w.Header().Get("Content-Encoding") != ""
	if !encoded && compressible(w.Header().Get("Content-Type")) && len(body) > 0 {
		var out bytes.Buffer
		gz := gzip.NewWriter(&out)
		if _, err := gz.Write(body); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
		body = out.Bytes()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.ResponseWriter.WriteHeader(w.statusCode)
	_, err := w.ResponseWriter.Write(body)
	return err
}

func compressible(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "text/plain") ||
		strings.Contains(contentType, "text/html")
}
