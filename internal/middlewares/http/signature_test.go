package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type lenHasher struct{}

func (lenHasher) Hash(data []byte) string {
	return string(rune('a' + len(data)))
}

func TestSignatureMiddleware(t *testing.T) {
	handler := SignatureMiddleware(lenHasher{}, "HashSHA256")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, "abc")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "d", w.Header().Get("HashSHA256"))
}

func TestSignatureMiddleware_NilHasher(t *testing.T) {
	handler := SignatureMiddleware(nil, "HashSHA256")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "abc")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "abc", w.Body.String())
	assert.Empty(t, w.Header().Get("HashSHA256"))
}
