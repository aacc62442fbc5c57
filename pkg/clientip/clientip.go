package clientip

import (
	"net"
	"net/http"
	"strings"
)

// forwardingHeaders are consulted in order before falling back to RemoteAddr.
// X-Forwarded-For may hold a chain; its first valid address wins.
var forwardingHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the normalized client address of r, or "" when none of the
// forwarding headers nor RemoteAddr hold a valid IP.
func GetIP(r *http.Request) string {
	for _, h := range forwardingHeaders {
		for candidate := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
