package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// AddrResolver derives the client address used as the rate-limit key.
// X-Forwarded-For is honoured only when the direct peer is a trusted proxy;
// the nearest untrusted hop is then taken as the client.
type AddrResolver struct {
	trusted []*net.IPNet
}

// NewAddrResolver accepts plain IPs and CIDRs. Unparseable entries are
// ignored.
func NewAddrResolver(proxies []string) *AddrResolver {
	r := &AddrResolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				continue
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			r.trusted = append(r.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		if _, ipNet, err := net.ParseCIDR(p); err == nil {
			r.trusted = append(r.trusted, ipNet)
		}
	}
	return r
}

func (r *AddrResolver) isTrusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range r.trusted {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// ClientAddr returns the client IP for req.
func (r *AddrResolver) ClientAddr(req *http.Request) string {
	remote, ok := normalizeIP(req.RemoteAddr)
	if !ok {
		return req.RemoteAddr
	}
	if len(r.trusted) == 0 || !r.isTrusted(remote) {
		return remote
	}

	var chain []string
	for _, part := range strings.Split(req.Header.Get("X-Forwarded-For"), ",") {
		if ip, ok := normalizeIP(part); ok {
			chain = append(chain, ip)
		}
	}
	if len(chain) == 0 {
		return remote
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if !r.isTrusted(chain[i]) {
			return chain[i]
		}
	}
	return chain[0]
}

func normalizeIP(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	value = strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")

	parsed := net.ParseIP(value)
	if parsed == nil {
		return "", false
	}
	return parsed.String(), true
}
