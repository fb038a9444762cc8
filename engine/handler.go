package engine

// Handler is one processing stage of a chain.
type Handler interface {
	// Init runs once when the engine is built.
	Init() error
	// Invoke processes the message in ctx. A non-nil error diverts the
	// enclosing chain into fault handling.
	Invoke(ctx *Context) error
	// OnFault is called, innermost first, on handlers that completed before
	// a later stage of the same chain failed.
	OnFault(ctx *Context)
	// Cleanup runs on every handler that was entered, on every chain exit.
	Cleanup(ctx *Context)
}

// Describer is implemented by handlers taking part in description
// generation. Handlers without it are skipped in that mode.
type Describer interface {
	Describe(ctx *Context) error
}

// BaseHandler provides no-op lifecycle methods for embedding.
type BaseHandler struct{}

func (BaseHandler) Init() error { return nil }

func (BaseHandler) OnFault(*Context) {}

func (BaseHandler) Cleanup(*Context) {}

type HandleFunc func(ctx *Context) error

func (f HandleFunc) Init() error { return nil }

func (f HandleFunc) Invoke(ctx *Context) error { return f(ctx) }

func (f HandleFunc) OnFault(*Context) {}

func (f HandleFunc) Cleanup(*Context) {}

type stepFunc func(h Handler, ctx *Context) error

func invokeStep(h Handler, ctx *Context) error {
	return h.Invoke(ctx)
}

func describeStep(h Handler, ctx *Context) error {
	if d, ok := h.(Describer); ok {
		return d.Describe(ctx)
	}
	return nil
}
