package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

func TestNew_invalid(t *testing.T) {
	if h := New(0, 1, nil); h != nil {
		t.Error("New(0, 1) != nil")
	}
	if h := New(1, 0, nil); h != nil {
		t.Error("New(1, 0) != nil")
	}
}

func TestHandler_allow(t *testing.T) {
	h := New(1, 2, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		key  string
		at   time.Duration
		want bool
	}{
		{key: "a", want: true},
		{key: "a", want: true},
		{key: "a", want: false},
		{key: "b", want: true},
		{key: "", want: true},
		{key: "a", at: time.Second, want: true},
		{key: "a", at: time.Second, want: false},
	}
	for i, tt := range tests {
		if got := h.allow(tt.key, now.Add(tt.at)); got != tt.want {
			t.Errorf("#%d allow(%q) = %v, want %v", i, tt.key, got, tt.want)
		}
	}
}

func TestHandler_Invoke(t *testing.T) {
	h := New(0.001, 1, ByService)
	b := engine.NewBuilder()
	b.Use(h)
	b.RegisterService(&engine.ServiceConfig{
		Desc: metadata.NewServiceDesc("echo", "urn:echo"),
		Pivot: engine.HandleFunc(func(ctx *engine.Context) error {
			ctx.SetResponse(message.New(ctx.Version()))
			return nil
		}),
	})
	e, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	call := func() error {
		ctx := e.AcquireContext(context.Background())
		defer e.ReleaseContext(ctx)
		ctx.SetTargetService("echo")
		ctx.SetRequestMessage(message.New(soap.SOAP11))
		return e.Dispatch(ctx)
	}
	if err := call(); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	err = call()
	var f *soap.Fault
	if !errors.As(err, &f) || f.Subcode != soap.SubcodeBusy {
		t.Errorf("second call error = %v, want busy fault", err)
	}
}
