// Package metrics counts and times invocations with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vizee/gsoap/engine"
)

const startKey = "gsoap.metrics.start"

type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gsoap",
			Name:      "requests_total",
			Help:      "Invocations handled, by service, operation and outcome.",
		}, []string{"service", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gsoap",
			Name:      "request_duration_seconds",
			Help:      "Invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
	}
	if reg != nil {
		for _, col := range []prometheus.Collector{c.requests, c.duration} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func labels(ctx *engine.Context) (service string, operation string) {
	service = ctx.TargetService()
	if svc := ctx.Service(); svc != nil {
		service = svc.Name()
	}
	if op := ctx.Operation(); op != nil {
		operation = op.Name
	}
	return
}

func (c *Collector) observe(ctx *engine.Context, outcome string) {
	service, operation := labels(ctx)
	c.requests.WithLabelValues(service, operation, outcome).Inc()
	if v, ok := ctx.Get(startKey); ok {
		if start, ok := v.(time.Time); ok {
			c.duration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
		}
	}
}

// RequestHandler starts the clock. It records failed invocations when the
// engine unwinds it.
func (c *Collector) RequestHandler() engine.Handler {
	return &requestHandler{c: c}
}

// ResponseHandler records completed invocations.
func (c *Collector) ResponseHandler() engine.Handler {
	return engine.HandleFunc(func(ctx *engine.Context) error {
		c.observe(ctx, "ok")
		return nil
	})
}

type requestHandler struct {
	engine.BaseHandler
	c *Collector
}

func (h *requestHandler) Invoke(ctx *engine.Context) error {
	ctx.Set(startKey, time.Now())
	return nil
}

func (h *requestHandler) OnFault(ctx *engine.Context) {
	h.c.observe(ctx, "fault")
}
