package engine

import (
	"context"
	"errors"
	"mime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

// ParseHook runs after a request payload is decoded. Hooks typically route
// the message by setting the target service.
type ParseHook func(ctx *Context, msg *message.Message) error

type Engine struct {
	options    *Options
	version    soap.Version
	transports map[string]*Chain
	global     *Chain
	services   map[string]*Service
	namespaces map[string]*Service
	codecs     map[string]message.Codec
	parseHooks []ParseHook
	sessions   *SessionTable
	ctxpool    *sync.Pool
	stopped    atomic.Bool
}

func (e *Engine) Options() *Options {
	return e.options
}

func (e *Engine) Version() soap.Version {
	return e.version
}

func (e *Engine) Sessions() *SessionTable {
	return e.sessions
}

func (e *Engine) Service(name string) *Service {
	return e.services[name]
}

func (e *Engine) ServiceByNamespace(ns string) *Service {
	return e.namespaces[ns]
}

func (e *Engine) Services() []*Service {
	ss := make([]*Service, 0, len(e.services))
	for _, s := range e.services {
		ss = append(ss, s)
	}
	return ss
}

// Codec finds a registered codec by media type, ignoring parameters.
func (e *Engine) Codec(contentType string) message.Codec {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.ToLower(contentType))
	}
	return e.codecs[mt]
}

// Stop makes further calls fail with a Server.Disabled fault.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	log.Infof("engine stopped")
}

func (e *Engine) Start() {
	e.stopped.Store(false)
	log.Infof("engine started")
}

func (e *Engine) Stopped() bool {
	return e.stopped.Load()
}

func (e *Engine) AcquireContext(goctx context.Context) *Context {
	ctx := e.ctxpool.Get().(*Context)
	ctx.ctx = goctx
	ctx.engine = e
	return ctx
}

func (e *Engine) ReleaseContext(ctx *Context) {
	ctx.reset()
	e.ctxpool.Put(ctx)
}

// Dispatch runs ctx through the transport chain, the global chain and the
// target service. A returned error is always a *soap.Fault and ctx.Response()
// then holds the matching fault message.
func (e *Engine) Dispatch(ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("dispatch %s: panic: %v", ctx.target, r)
			err = soap.ServerFault("%v", r)
		}
		if err != nil {
			f := soap.AsFault(err)
			ctx.SetResponse(message.NewFault(ctx.Version(), f))
			err = f
		}
	}()
	if ctx.engine == nil {
		ctx.engine = e
	}
	if e.stopped.Load() {
		return soap.ServerFault("engine is stopped").WithSubcode(soap.SubcodeDisabled)
	}
	return e.run(ctx, invokeStep)
}

// Describe runs ctx through the same stages as Dispatch, asking the target
// service for its description instead of invoking it.
func (e *Engine) Describe(ctx *Context) (doc *metadata.Description, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("describe %s: panic: %v", ctx.target, r)
			err = soap.ServerFault("%v", r)
		}
		if err != nil {
			err = soap.AsFault(err)
		}
	}()
	if ctx.engine == nil {
		ctx.engine = e
	}
	if e.stopped.Load() {
		return nil, soap.ServerFault("engine is stopped").WithSubcode(soap.SubcodeDisabled)
	}
	err = e.run(ctx, describeStep)
	if err != nil {
		return nil, err
	}
	if ctx.doc == nil {
		return nil, soap.ServerFault("service %s has no description", ctx.target)
	}
	return ctx.doc, nil
}

func (e *Engine) run(ctx *Context, step stepFunc) error {
	tc := e.transports[ctx.transport]
	if tc != nil {
		if err := tc.walkHalf(ctx, tc.request, step); err != nil {
			return err
		}
	}
	if err := e.global.walkHalf(ctx, e.global.request, step); err != nil {
		tc.onRequestFault(ctx)
		return err
	}

	svc, err := e.resolveService(ctx)
	if err == nil {
		ctx.service = svc
		err = call(step, svc, ctx)
	}
	if err != nil {
		e.global.onRequestFault(ctx)
		tc.onRequestFault(ctx)
		return err
	}

	// The service completed, so later faults unwind it too.
	if err := e.global.walkHalf(ctx, e.global.response, step); err != nil {
		svc.OnFault(ctx)
		e.global.onRequestFault(ctx)
		tc.onRequestFault(ctx)
		return err
	}
	if tc != nil {
		if err := tc.walkHalf(ctx, tc.response, step); err != nil {
			e.global.onResponseFault(ctx)
			svc.OnFault(ctx)
			e.global.onRequestFault(ctx)
			tc.onRequestFault(ctx)
			return err
		}
	}
	return nil
}

func (e *Engine) resolveService(ctx *Context) (*Service, error) {
	if ctx.service != nil {
		return ctx.service, nil
	}
	if ctx.target == "" && (ctx.codec != nil || ctx.request != nil) {
		if _, err := ctx.RequestMessage(); err != nil {
			return nil, err
		}
	}
	if ctx.target == "" {
		return nil, soap.ClientFault("no target service").WithSubcode(soap.SubcodeNoService)
	}
	svc := e.services[ctx.target]
	if svc == nil {
		return nil, soap.ClientFault("no such service %s", ctx.target).WithSubcode(soap.SubcodeNoService)
	}
	return svc, nil
}

// Request is one encoded call handed over by a transport.
type Request struct {
	Transport  string
	Service    string
	Codec      message.Codec
	Body       []byte
	Properties map[string]any
}

// Invoke dispatches an encoded request and encodes the reply. The reply is
// nil for one-way operations. fault is set when the reply carries a fault;
// err reports only failures to produce a reply at all.
func (e *Engine) Invoke(goctx context.Context, req *Request) (reply []byte, fault *soap.Fault, err error) {
	if req.Codec == nil {
		return nil, nil, errors.New("engine: request has no codec")
	}
	ctx := e.AcquireContext(goctx)
	defer e.ReleaseContext(ctx)

	ctx.transport = req.Transport
	ctx.target = req.Service
	ctx.SetPayload(req.Body, req.Codec)
	for k, v := range req.Properties {
		ctx.Set(k, v)
	}

	if derr := e.Dispatch(ctx); derr != nil {
		errors.As(derr, &fault)
	}
	resp := ctx.Response()
	if resp == nil {
		return nil, fault, nil
	}
	reply, err = req.Codec.Encode(resp)
	if err != nil {
		log.Errorf("encode reply of %s: %v", req.Service, err)
		return nil, fault, err
	}
	return reply, fault, nil
}

// DescribeService returns the description document of a service.
func (e *Engine) DescribeService(goctx context.Context, transport string, service string, props map[string]any) (*metadata.Description, error) {
	ctx := e.AcquireContext(goctx)
	defer e.ReleaseContext(ctx)

	ctx.transport = transport
	ctx.target = service
	for k, v := range props {
		ctx.Set(k, v)
	}
	return e.Describe(ctx)
}
