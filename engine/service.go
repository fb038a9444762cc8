package engine

import (
	"sync"
	"sync/atomic"

	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

// BackendFactory creates a service implementation instance.
type BackendFactory func() (any, error)

// BackendResolver overrides scope based instance management.
type BackendResolver func(ctx *Context) (any, error)

const sessionBackendKey = "gsoap.backend"

// ServiceConfig describes a service to register with a Builder.
type ServiceConfig struct {
	Desc     *metadata.ServiceDesc
	Request  []Handler
	Pivot    Handler
	Response []Handler
	Factory  BackendFactory
	Resolver BackendResolver
	// Roles are SOAP actors/roles the service plays besides the ultimate
	// receiver and next.
	Roles []string
	// Understood lists headers the service consumes without a handler
	// marking them processed.
	Understood []soap.QName
	Options    map[string]any
	Disabled   bool
}

type Service struct {
	desc       *metadata.ServiceDesc
	chain      *Chain
	options    *Options
	roles      []string
	understood []soap.QName
	factory    BackendFactory
	resolver   BackendResolver
	enabled    atomic.Bool

	// application scoped instance, created on first success
	appMu    sync.Mutex
	app      any
	appReady bool
}

func newService(cfg *ServiceConfig, parent *Options) *Service {
	s := &Service{
		desc:       cfg.Desc,
		options:    NewOptions(parent),
		roles:      cfg.Roles,
		understood: cfg.Understood,
		factory:    cfg.Factory,
		resolver:   cfg.Resolver,
	}
	for k, v := range cfg.Options {
		s.options.Set(k, v)
	}
	request := append(append(make([]Handler, 0, len(cfg.Request)+1), cfg.Request...), &mustUnderstandChecker{service: s})
	s.chain = NewChain(cfg.Desc.Name, request, cfg.Pivot, cfg.Response)
	s.enabled.Store(!cfg.Disabled)
	return s
}

func (s *Service) Name() string {
	return s.desc.Name
}

func (s *Service) Desc() *metadata.ServiceDesc {
	return s.desc
}

func (s *Service) Options() *Options {
	return s.options
}

func (s *Service) Chain() *Chain {
	return s.chain
}

func (s *Service) Enabled() bool {
	return s.enabled.Load()
}

func (s *Service) SetEnabled(v bool) {
	s.enabled.Store(v)
}

func (s *Service) Enable() {
	s.SetEnabled(true)
}

func (s *Service) Disable() {
	s.SetEnabled(false)
}

func (s *Service) Init() error {
	return s.chain.Init()
}

func (s *Service) Invoke(ctx *Context) error {
	if !s.enabled.Load() {
		return soap.ServerFault("service %s is disabled", s.desc.Name).WithSubcode(soap.SubcodeServiceDisabled)
	}
	return s.chain.Invoke(ctx)
}

func (s *Service) Describe(ctx *Context) error {
	if !s.enabled.Load() {
		return soap.ServerFault("service %s is disabled", s.desc.Name).WithSubcode(soap.SubcodeServiceDisabled)
	}
	return s.chain.Describe(ctx)
}

// OnFault notifies the whole service chain. The engine calls it when a later
// stage fails after the service completed.
func (s *Service) OnFault(ctx *Context) {
	s.chain.OnFault(ctx)
}

// Cleanup is a no-op: the chain cleans up as it runs.
func (s *Service) Cleanup(*Context) {}

// Backend returns the implementation instance serving ctx according to the
// service scope.
func (s *Service) Backend(ctx *Context) (any, error) {
	if s.resolver != nil {
		return s.resolver(ctx)
	}
	if s.factory == nil {
		return nil, soap.ServerFault("service %s has no backend", s.desc.Name)
	}
	switch s.desc.Scope {
	case metadata.SessionScope:
		sess := ctx.Session()
		if sess == nil {
			if ctx.engine == nil {
				return nil, soap.ServerFault("service %s requires a session", s.desc.Name)
			}
			sess = ctx.engine.sessions.Create(s.desc.Name)
			ctx.SetSession(sess)
		}
		return sess.load(sessionBackendKey, s.factory)
	case metadata.RequestScope:
		return s.factory()
	default:
		return s.application()
	}
}

// application returns the shared instance. A failed factory call is not
// cached; the next invocation tries again.
func (s *Service) application() (any, error) {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	if s.appReady {
		return s.app, nil
	}
	app, err := s.factory()
	if err != nil {
		return nil, err
	}
	s.app, s.appReady = app, true
	return app, nil
}

func (s *Service) playsRole(role string) bool {
	if role == "" || role == soap.Role12UltimateReceiver || soap.IsNextRole(role) {
		return true
	}
	for _, r := range s.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Service) understands(name soap.QName) bool {
	for _, q := range s.understood {
		if q.Matches(name) {
			return true
		}
	}
	return false
}
