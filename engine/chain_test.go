package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChain_Invoke(t *testing.T) {
	tests := []struct {
		name          string
		build         func(s *recorderSet) *Chain
		want          []string
		wantErr       bool
		wantPastPivot bool
	}{
		{
			name: "success",
			build: func(s *recorderSet) *Chain {
				return NewChain("t", []Handler{s.ok("a"), s.ok("b")}, s.ok("p"), []Handler{s.ok("c")})
			},
			want: []string{
				"a.invoke", "b.invoke", "p.invoke", "c.invoke",
				"c.cleanup", "p.cleanup", "b.cleanup", "a.cleanup",
			},
			wantPastPivot: true,
		},
		{
			name: "request_fault",
			build: func(s *recorderSet) *Chain {
				return NewChain("t", []Handler{s.ok("a"), s.failing("b"), s.ok("x")}, s.ok("p"), []Handler{s.ok("c")})
			},
			want: []string{
				"a.invoke", "b.invoke",
				"a.fault",
				"b.cleanup", "a.cleanup",
			},
			wantErr: true,
		},
		{
			name: "pivot_fault",
			build: func(s *recorderSet) *Chain {
				return NewChain("t", []Handler{s.ok("a"), s.ok("b")}, s.failing("p"), []Handler{s.ok("c")})
			},
			want: []string{
				"a.invoke", "b.invoke", "p.invoke",
				"b.fault", "a.fault",
				"p.cleanup", "b.cleanup", "a.cleanup",
			},
			wantErr:       true,
			wantPastPivot: true,
		},
		{
			name: "response_fault",
			build: func(s *recorderSet) *Chain {
				return NewChain("t", []Handler{s.ok("a")}, s.ok("p"), []Handler{s.ok("c"), s.failing("d")})
			},
			want: []string{
				"a.invoke", "p.invoke", "c.invoke", "d.invoke",
				"c.fault", "p.fault", "a.fault",
				"d.cleanup", "c.cleanup", "p.cleanup", "a.cleanup",
			},
			wantErr:       true,
			wantPastPivot: true,
		},
		{
			name: "request_panic",
			build: func(s *recorderSet) *Chain {
				return NewChain("t", []Handler{s.ok("a"), s.panicking("b")}, s.ok("p"), nil)
			},
			want: []string{
				"a.invoke", "b.invoke",
				"a.fault",
				"b.cleanup", "a.cleanup",
			},
			wantErr: true,
		},
		{
			name: "pivot_panic",
			build: func(s *recorderSet) *Chain {
				return NewChain("t", []Handler{s.ok("a")}, s.panicking("p"), []Handler{s.ok("c")})
			},
			want: []string{
				"a.invoke", "p.invoke",
				"a.fault",
				"p.cleanup", "a.cleanup",
			},
			wantErr:       true,
			wantPastPivot: true,
		},
		{
			name: "no_pivot",
			build: func(s *recorderSet) *Chain {
				return NewChain("t", []Handler{s.ok("a")}, nil, []Handler{s.ok("c")})
			},
			want: []string{"a.invoke", "c.invoke", "c.cleanup", "a.cleanup"},
		},
		{
			name: "nested",
			build: func(s *recorderSet) *Chain {
				inner := NewChain("inner", []Handler{s.ok("i")}, s.failing("q"), nil)
				return NewChain("outer", []Handler{s.ok("a"), inner}, nil, nil)
			},
			want: []string{
				"a.invoke", "i.invoke", "q.invoke",
				"i.fault",
				"q.cleanup", "i.cleanup",
				"a.fault",
				"a.cleanup",
			},
			wantErr:       true,
			wantPastPivot: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recorderSet{}
			ctx := &Context{}
			err := tt.build(s).Invoke(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Chain.Invoke() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, s.events); diff != "" {
				t.Errorf("Chain.Invoke() events mismatch (-want +got):\n%s", diff)
			}
			if ctx.PastPivot() != tt.wantPastPivot {
				t.Errorf("Context.PastPivot() = %v, want %v", ctx.PastPivot(), tt.wantPastPivot)
			}
		})
	}
}

func TestChain_Describe(t *testing.T) {
	s := &recorderSet{}
	d := &describer{recorder: recorder{name: "d", events: &s.events}}
	p := &describer{recorder: recorder{name: "p", events: &s.events}}
	c := NewChain("t", []Handler{s.ok("a"), d}, p, nil)
	if err := c.Describe(&Context{}); err != nil {
		t.Fatalf("Chain.Describe() error = %v", err)
	}
	want := []string{"d.describe", "p.describe", "p.cleanup", "d.cleanup", "a.cleanup"}
	if diff := cmp.Diff(want, s.events); diff != "" {
		t.Errorf("Chain.Describe() events mismatch (-want +got):\n%s", diff)
	}
}

func TestChain_halves(t *testing.T) {
	s := &recorderSet{}
	c := NewChain("t", []Handler{s.ok("a"), s.failing("b")}, nil, []Handler{s.ok("c")})
	ctx := &Context{}
	if err := c.InvokeRequest(ctx); err == nil {
		t.Fatal("Chain.InvokeRequest() error = nil")
	}
	if err := c.InvokeResponse(ctx); err != nil {
		t.Fatalf("Chain.InvokeResponse() error = %v", err)
	}
	c.OnFault(ctx)
	want := []string{
		"a.invoke", "b.invoke", "a.fault", "b.cleanup", "a.cleanup",
		"c.invoke", "c.cleanup",
		"c.fault", "b.fault", "a.fault",
	}
	if diff := cmp.Diff(want, s.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
