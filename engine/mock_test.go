package engine

import (
	"errors"
	"fmt"

	"github.com/vizee/gsoap/message"
)

type recorder struct {
	name   string
	events *[]string
	fail   bool
	panic  bool
}

func (r *recorder) record(what string) {
	*r.events = append(*r.events, r.name+"."+what)
}

func (r *recorder) Init() error { return nil }

func (r *recorder) Invoke(ctx *Context) error {
	r.record("invoke")
	if r.panic {
		panic(r.name + " panicked")
	}
	if r.fail {
		return errors.New(r.name + " failed")
	}
	return nil
}

func (r *recorder) OnFault(ctx *Context) { r.record("fault") }

func (r *recorder) Cleanup(ctx *Context) { r.record("cleanup") }

type describer struct {
	recorder
}

func (d *describer) Describe(ctx *Context) error {
	d.record("describe")
	if d.fail {
		return errors.New(d.name + " failed")
	}
	return nil
}

type recorderSet struct {
	events []string
}

func (s *recorderSet) ok(name string) *recorder {
	return &recorder{name: name, events: &s.events}
}

func (s *recorderSet) failing(name string) *recorder {
	return &recorder{name: name, events: &s.events, fail: true}
}

func (s *recorderSet) panicking(name string) *recorder {
	return &recorder{name: name, events: &s.events, panic: true}
}

// pivotWatcher notes whether the pivot had returned when OnFault ran.
type pivotWatcher struct {
	recorder
	pastPivot bool
}

func (w *pivotWatcher) OnFault(ctx *Context) {
	w.pastPivot = ctx.PastPivot()
	w.recorder.OnFault(ctx)
}

// stubCodec decodes every payload to a fixed message and encodes a summary.
type stubCodec struct {
	msg *message.Message
	err error
}

func (c *stubCodec) ContentType() string { return "application/x-stub" }

func (c *stubCodec) Decode([]byte) (*message.Message, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.msg, nil
}

func (c *stubCodec) Encode(m *message.Message) ([]byte, error) {
	if m.IsFault() {
		return []byte("fault:" + string(m.Fault.Code)), nil
	}
	return []byte(fmt.Sprintf("reply:%s:%d", m.Operation.Local, len(m.Params))), nil
}

func echoPivot(ctx *Context) error {
	msg, err := ctx.RequestMessage()
	if err != nil {
		return err
	}
	resp := message.New(ctx.Version())
	resp.Operation = msg.Operation
	resp.Operation.Local += "Response"
	resp.Params = msg.Params
	ctx.SetResponse(resp)
	return nil
}
