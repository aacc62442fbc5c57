// Package clientip resolves the caller address of an HTTP request behind
// proxies (CF-Connecting-IP, X-Forwarded-For, X-Real-IP, then RemoteAddr) and
// carries it in the request context for access logs.
package clientip
