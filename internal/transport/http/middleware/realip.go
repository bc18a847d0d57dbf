package middleware

import (
	"net"
	"net/http"
)

// realIP returns the host part of RemoteAddr. Forwarding headers are only
// honoured when the router mounts chi's RealIP ahead of the limiters, which
// rewrites RemoteAddr for requests arriving through a trusted proxy.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
