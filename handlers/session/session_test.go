package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/handlers/rpc"
	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

type counter struct {
	n int
}

func (c *counter) Next() int {
	c.n++
	return c.n
}

func newEngine(t *testing.T, h *Handler) *engine.Engine {
	t.Helper()
	sd := metadata.NewServiceDesc("counter", "urn:counter")
	sd.Scope = metadata.SessionScope
	if err := metadata.Introspect(sd, reflect.TypeOf((*counter)(nil))); err != nil {
		t.Fatal(err)
	}
	b := engine.NewBuilder()
	b.RegisterService(&engine.ServiceConfig{
		Desc:     sd,
		Request:  []engine.Handler{h},
		Pivot:    rpc.NewProvider(),
		Response: []engine.Handler{h},
		Factory:  func() (any, error) { return &counter{}, nil },
	})
	e, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func next(e *engine.Engine, id string) (int, string, error) {
	ctx := e.AcquireContext(context.Background())
	defer e.ReleaseContext(ctx)
	msg := message.New(soap.SOAP11)
	msg.Operation = soap.NewQName("urn:counter", "Next")
	if id != "" {
		msg.AddHeader(&message.Header{Name: HeaderName, MustUnderstand: true, Value: id})
	}
	ctx.SetTargetService("counter")
	ctx.SetRequestMessage(msg)
	if err := e.Dispatch(ctx); err != nil {
		return 0, "", err
	}
	resp := ctx.Response()
	n, _ := resp.Params[0].Value.(int)
	sid := ""
	if h := resp.Header(HeaderName); h != nil {
		sid, _ = h.Value.(string)
	}
	return n, sid, nil
}

func TestHandler(t *testing.T) {
	e := newEngine(t, New())

	n, id, err := next(e, "")
	if err != nil || n != 1 || id == "" {
		t.Fatalf("first call = %d, %q, %v", n, id, err)
	}
	n, id2, err := next(e, id)
	if err != nil || n != 2 || id2 != id {
		t.Fatalf("second call = %d, %q, %v", n, id2, err)
	}
	n, id3, err := next(e, "")
	if err != nil || n != 1 || id3 == id {
		t.Fatalf("call without session = %d, %q, %v", n, id3, err)
	}
	n, id4, err := next(e, "stale")
	if err != nil || n != 1 || id4 == "stale" {
		t.Fatalf("call with stale session = %d, %q, %v", n, id4, err)
	}
	if got := e.Sessions().Len("counter"); got != 3 {
		t.Errorf("SessionTable.Len() = %d, want 3", got)
	}
}

func TestHandler_strict(t *testing.T) {
	e := newEngine(t, &Handler{Strict: true})
	_, _, err := next(e, "stale")
	var f *soap.Fault
	if !errors.As(err, &f) || f.Code != soap.CodeClient {
		t.Errorf("Dispatch() error = %v, want client fault", err)
	}
}
