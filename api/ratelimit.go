package api

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// ipLimiter keeps one token bucket per client IP. Buckets idle for a full
// window are evicted, which resets them.
type ipLimiter struct {
	limit   rate.Limit
	burst   int
	message string
	proxies proxyList
	clients *expirable.LRU[string, *rate.Limiter]
}

func newIPLimiter(requests int, window time.Duration, maxClients int, proxies proxyList, message string) *ipLimiter {
	if requests <= 0 || window <= 0 {
		return nil
	}
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &ipLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		message: message,
		proxies: proxies,
		clients: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, window),
	}
}

func (l *ipLimiter) allow(key string) bool {
	lim, ok := l.clients.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients.Add(key, lim)
	}
	return lim.Allow()
}

// middleware rejects requests over the limit with 429. A nil limiter lets everything through.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.proxies.clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, NewTooManyRequestsError(l.message).Response())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// proxyList holds the reverse proxies whose X-Forwarded-For entries are believed.
type proxyList []netip.Prefix

// parseProxies accepts bare addresses and CIDR ranges.
func parseProxies(entries []string) (proxyList, error) {
	var out proxyList
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("api: trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("api: trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (p proxyList) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP is the peer address, unless the peer is a trusted proxy. Then
// X-Forwarded-For is walked from the right and the first hop that is not
// itself a trusted proxy is the client.
func (p proxyList) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !p.trusts(peer) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !p.trusts(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
