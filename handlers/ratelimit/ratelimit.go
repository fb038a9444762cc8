// Package ratelimit rejects invocations exceeding a per-key token bucket.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/soap"
	"golang.org/x/time/rate"
)

// ClientKeyProperty is set by transports to the caller address.
const ClientKeyProperty = "clientAddr"

type KeyFunc func(ctx *engine.Context) string

// ByService keys buckets by target service.
func ByService(ctx *engine.Context) string {
	return ctx.TargetService()
}

// ByClient keys buckets by caller address.
func ByClient(ctx *engine.Context) string {
	return ctx.GetString(ClientKeyProperty)
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Handler struct {
	engine.BaseHandler

	limit   rate.Limit
	burst   int
	key     KeyFunc
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	byKey map[string]*entry
	hits  uint64
}

// New returns nil when rps or burst is not positive; a nil handler is not
// meant to be installed.
func New(rps float64, burst int, key KeyFunc) *Handler {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if key == nil {
		key = ByService
	}
	return &Handler{
		limit:   rate.Limit(rps),
		burst:   burst,
		key:     key,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
		byKey:   make(map[string]*entry),
	}
}

func (h *Handler) allow(key string, now time.Time) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(h.limit, h.burst)}
		h.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	h.hits++
	if h.hits%512 == 0 {
		cutoff := now.Add(-h.idleTTL)
		for k, v := range h.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(h.byKey, k)
			}
		}
	}
	return allowed
}

func (h *Handler) Invoke(ctx *engine.Context) error {
	key := h.key(ctx)
	if !h.allow(key, h.now()) {
		return soap.ServerFault("rate limit exceeded for %s", key).WithSubcode(soap.SubcodeBusy)
	}
	return nil
}
