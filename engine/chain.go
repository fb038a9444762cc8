package engine

import (
	"github.com/vizee/gsoap/internal/slices"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/soap"
)

type phase uint8

const (
	phaseRequest phase = iota
	phasePivot
	phaseResponse
	phaseDone
	phaseFault
)

func (p phase) String() string {
	switch p {
	case phaseRequest:
		return "request"
	case phasePivot:
		return "pivot"
	case phaseResponse:
		return "response"
	case phaseDone:
		return "done"
	case phaseFault:
		return "fault"
	}
	return "unknown"
}

// Chain runs request handlers, a pivot and response handlers in order. A
// chain is itself a Handler, so chains nest.
type Chain struct {
	name     string
	request  []Handler
	pivot    Handler
	response []Handler
}

func NewChain(name string, request []Handler, pivot Handler, response []Handler) *Chain {
	return &Chain{
		name:     name,
		request:  slices.Shrink(request),
		pivot:    pivot,
		response: slices.Shrink(response),
	}
}

func (c *Chain) Name() string {
	return c.name
}

func (c *Chain) Pivot() Handler {
	return c.pivot
}

func (c *Chain) Init() error {
	for _, h := range c.request {
		if err := h.Init(); err != nil {
			return err
		}
	}
	if c.pivot != nil {
		if err := c.pivot.Init(); err != nil {
			return err
		}
	}
	for _, h := range c.response {
		if err := h.Init(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) Invoke(ctx *Context) error {
	return c.walk(ctx, invokeStep)
}

func (c *Chain) Describe(ctx *Context) error {
	return c.walk(ctx, describeStep)
}

// OnFault notifies every handler of a chain that completed, innermost first.
func (c *Chain) OnFault(ctx *Context) {
	unwind(ctx, c.response)
	if c.pivot != nil {
		c.pivot.OnFault(ctx)
	}
	unwind(ctx, c.request)
}

// Cleanup is a no-op: walk cleans up the handlers it entered.
func (c *Chain) Cleanup(*Context) {}

// call runs step on h. A panic becomes a Server fault, so the caller takes
// its usual fault path.
func call(step stepFunc, h Handler, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("handler %T: panic: %v", h, r)
			err = soap.ServerFault("%v", r)
		}
	}()
	return step(h, ctx)
}

func unwind(ctx *Context, hs []Handler) {
	for i := len(hs) - 1; i >= 0; i-- {
		hs[i].OnFault(ctx)
	}
}

func cleanup(ctx *Context, hs []Handler) {
	for i := len(hs) - 1; i >= 0; i-- {
		hs[i].Cleanup(ctx)
	}
}

// walk drives REQUEST -> PIVOT -> RESPONSE -> DONE. A failure moves to FAULT:
// handlers completed so far are unwound and the chain stops.
func (c *Chain) walk(ctx *Context, step stepFunc) error {
	entered := make([]Handler, 0, len(c.request)+len(c.response)+1)
	defer func() {
		cleanup(ctx, entered)
	}()

	state := phaseRequest
	var err error
	for state != phaseDone {
		switch state {
		case phaseRequest:
			for _, h := range c.request {
				entered = append(entered, h)
				if err = call(step, h, ctx); err != nil {
					break
				}
			}
			if err != nil {
				state = phaseFault
			} else {
				state = phasePivot
			}
		case phasePivot:
			if c.pivot != nil {
				entered = append(entered, c.pivot)
				err = call(step, c.pivot, ctx)
				ctx.SetPastPivot(true)
			}
			if err != nil {
				state = phaseFault
			} else {
				state = phaseResponse
			}
		case phaseResponse:
			for _, h := range c.response {
				entered = append(entered, h)
				if err = call(step, h, ctx); err != nil {
					break
				}
			}
			if err != nil {
				state = phaseFault
			} else {
				state = phaseDone
			}
		case phaseFault:
			log.Debugf("chain %s: fault after %d handlers: %v", c.name, len(entered), err)
			unwind(ctx, entered[:len(entered)-1])
			return err
		}
	}
	return nil
}

// InvokeRequest runs only the request handlers. The engine uses it for the
// transport and global chains, which bracket the service.
func (c *Chain) InvokeRequest(ctx *Context) error {
	return c.walkHalf(ctx, c.request, invokeStep)
}

func (c *Chain) InvokeResponse(ctx *Context) error {
	return c.walkHalf(ctx, c.response, invokeStep)
}

func (c *Chain) walkHalf(ctx *Context, hs []Handler, step stepFunc) error {
	for i, h := range hs {
		if err := call(step, h, ctx); err != nil {
			log.Debugf("chain %s: fault at handler %d: %v", c.name, i, err)
			unwind(ctx, hs[:i])
			cleanup(ctx, hs[:i+1])
			return err
		}
	}
	cleanup(ctx, hs)
	return nil
}

// onRequestFault unwinds a request half that completed earlier.
func (c *Chain) onRequestFault(ctx *Context) {
	if c == nil {
		return
	}
	unwind(ctx, c.request)
}

func (c *Chain) onResponseFault(ctx *Context) {
	if c == nil {
		return
	}
	unwind(ctx, c.response)
}
