package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vizee/gsoap/internal/slices"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/soap"
)

type halves struct {
	request  []Handler
	response []Handler
}

type Builder struct {
	engine     *Engine
	transports map[string]*halves
	global     halves
	services   []*ServiceConfig
}

func NewBuilder() *Builder {
	return &Builder{
		engine: &Engine{
			options: NewOptions(nil),
			version: soap.SOAP11,
			ctxpool: &sync.Pool{
				New: func() any {
					return &Context{}
				},
			},
			transports: make(map[string]*Chain),
			services:   make(map[string]*Service),
			namespaces: make(map[string]*Service),
			codecs:     make(map[string]message.Codec),
			sessions:   NewSessionTable(),
		},
		transports: make(map[string]*halves),
	}
}

// Version sets the protocol revision used when a context carries none.
func (b *Builder) Version(v soap.Version) {
	b.engine.version = v
}

func (b *Builder) SetOption(name string, value any) {
	b.engine.options.Set(name, value)
}

func (b *Builder) Transport(name string, request []Handler, response []Handler) {
	t := b.transports[name]
	if t == nil {
		t = &halves{}
		b.transports[name] = t
	}
	t.request = append(t.request, request...)
	t.response = append(t.response, response...)
}

// Use appends a global request handler.
func (b *Builder) Use(h Handler) {
	b.global.request = append(b.global.request, h)
}

// UseResponse appends a global response handler.
func (b *Builder) UseResponse(h Handler) {
	b.global.response = append(b.global.response, h)
}

func (b *Builder) RegisterCodec(c message.Codec) {
	b.engine.codecs[strings.ToLower(c.ContentType())] = c
}

func (b *Builder) ParseHook(hook ParseHook) {
	b.engine.parseHooks = append(b.engine.parseHooks, hook)
}

func (b *Builder) RegisterService(cfg *ServiceConfig) {
	b.services = append(b.services, cfg)
}

// Build assembles the chains and runs Init on every handler.
func (b *Builder) Build() (*Engine, error) {
	e := b.engine
	for name, t := range b.transports {
		tc := NewChain("transport:"+name, t.request, nil, t.response)
		if err := tc.Init(); err != nil {
			return nil, fmt.Errorf("init transport %s: %w", name, err)
		}
		e.transports[name] = tc
	}
	e.global = NewChain("global", b.global.request, nil, b.global.response)
	if err := e.global.Init(); err != nil {
		return nil, fmt.Errorf("init global chain: %w", err)
	}
	for _, cfg := range b.services {
		if cfg.Desc == nil {
			return nil, fmt.Errorf("service without descriptor")
		}
		name := cfg.Desc.Name
		if e.services[name] != nil {
			return nil, fmt.Errorf("duplicate service %s", name)
		}
		svc := newService(cfg, e.options)
		if err := svc.Init(); err != nil {
			return nil, fmt.Errorf("init service %s: %w", name, err)
		}
		e.services[name] = svc
		if ns := cfg.Desc.Namespace; ns != "" {
			if e.namespaces[ns] == nil {
				e.namespaces[ns] = svc
			} else {
				log.Warnf("namespace %s is served by %s and %s", ns, e.namespaces[ns].Name(), name)
			}
		}
		log.Debugf("deployed service %s (%d operations)", name, len(cfg.Desc.Operations()))
	}
	e.parseHooks = slices.Shrink(e.parseHooks)
	return e, nil
}
