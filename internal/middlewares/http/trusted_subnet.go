package http

import (
	"net"
	"net/http"
)

// TrustedSubnetMiddleware admits only requests whose X-Real-IP header, or
// the remote address when the header is absent, belongs to subnet.
// A nil subnet disables the check.
func TrustedSubnetMiddleware(subnet *net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if subnet == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip == nil || !subnet.Contains(ip) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) net.IP {
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return net.ParseIP(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}
