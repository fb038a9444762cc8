// Package session correlates invocations of session scoped services through
// a SOAP header carrying the session id.
package session

import (
	"context"
	"time"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/soap"
)

const Namespace = "urn:gsoap:session"

var HeaderName = soap.QName{Space: Namespace, Local: "sessionID"}

// Handler belongs in both lists of a service chain. Before the pivot it
// attaches the session named by the request header, after the pivot it
// echoes the session id in the reply.
type Handler struct {
	engine.BaseHandler
	// Strict rejects requests naming an unknown or expired session instead
	// of starting a new one.
	Strict bool
}

func New() *Handler {
	return &Handler{}
}

func serviceName(ctx *engine.Context) string {
	if svc := ctx.Service(); svc != nil {
		return svc.Name()
	}
	return ctx.TargetService()
}

func (h *Handler) Invoke(ctx *engine.Context) error {
	if ctx.PastPivot() {
		return h.reply(ctx)
	}
	msg, err := ctx.RequestMessage()
	if err != nil {
		return err
	}
	hdr := msg.Header(HeaderName)
	if hdr == nil {
		return nil
	}
	hdr.MarkProcessed()
	id, _ := hdr.Value.(string)
	if id == "" {
		return nil
	}
	if s := ctx.Engine().Sessions().Lookup(serviceName(ctx), id); s != nil {
		ctx.SetSession(s)
		return nil
	}
	if h.Strict {
		return soap.ClientFault("unknown session %s", id)
	}
	log.Debugf("session: %s has no session %s, starting a new one", serviceName(ctx), id)
	return nil
}

func (h *Handler) reply(ctx *engine.Context) error {
	s := ctx.Session()
	resp := ctx.Response()
	if s == nil || resp == nil {
		return nil
	}
	resp.AddHeader(&message.Header{Name: HeaderName, Value: s.ID()})
	return nil
}

// RunSweeper removes sessions idle for longer than idle until ctx is done.
func RunSweeper(ctx context.Context, table *engine.SessionTable, idle time.Duration) {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := table.Sweep(idle); n > 0 {
				log.Debugf("session: swept %d idle sessions", n)
			}
		}
	}
}
