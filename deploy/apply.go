package deploy

import (
	"fmt"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/handlers/rpc"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

// Apply registers every service of d with b.
func Apply(b *engine.Builder, d *Descriptor, r *Registry) error {
	for i := range d.Services {
		cfg, err := r.serviceConfig(&d.Services[i])
		if err != nil {
			return fmt.Errorf("deploy: service %s: %w", d.Services[i].Name, err)
		}
		b.RegisterService(cfg)
		log.Infof("deploy: service %s (%d operations)", cfg.Desc.Name, len(cfg.Desc.Operations()))
	}
	return nil
}

func (r *Registry) serviceConfig(s *Service) (*engine.ServiceConfig, error) {
	be, ok := r.backends[s.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown backend %s", s.Backend)
	}
	sd, err := r.serviceDesc(s)
	if err != nil {
		return nil, err
	}
	if err := metadata.Introspect(sd, be.typ); err != nil {
		return nil, err
	}

	request, err := r.handlerList(s.Handlers)
	if err != nil {
		return nil, err
	}
	response, err := r.handlerList(s.ResponseHandlers)
	if err != nil {
		return nil, err
	}
	understood := make([]soap.QName, len(s.Understood))
	for i, q := range s.Understood {
		understood[i] = soap.ParseQName(q)
	}
	return &engine.ServiceConfig{
		Desc:       sd,
		Request:    request,
		Pivot:      rpc.NewProvider(),
		Response:   response,
		Factory:    be.factory,
		Roles:      s.Roles,
		Understood: understood,
		Options:    s.Options,
		Disabled:   s.Disabled,
	}, nil
}

func (r *Registry) serviceDesc(s *Service) (*metadata.ServiceDesc, error) {
	sd := metadata.NewServiceDesc(s.Name, s.Namespace)
	var err error
	if sd.Style, err = metadata.ParseStyle(s.Style); err != nil {
		return nil, err
	}
	if sd.Use, err = metadata.ParseUse(s.Use); err != nil {
		return nil, err
	}
	if sd.Scope, err = metadata.ParseScope(s.Scope); err != nil {
		return nil, err
	}
	sd.AllowedMethods = s.AllowedMethods
	sd.Documentation = s.Documentation

	for i := range s.Operations {
		op, err := r.operation(&s.Operations[i])
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", s.Operations[i].Name, err)
		}
		sd.AddOperation(op)
	}
	return sd, nil
}

func (r *Registry) operation(o *Operation) (*metadata.OperationDesc, error) {
	if o.Name == "" {
		return nil, fmt.Errorf("operation without name")
	}
	op := metadata.NewOperation(o.Name)
	op.ElementQName = soap.ParseQName(o.Element)
	op.Documentation = o.Documentation
	var err error
	if op.MEP, err = metadata.ParseMEP(o.MEP); err != nil {
		return nil, err
	}

	for i := range o.Params {
		p := &o.Params[i]
		mode, err := metadata.ParseParamMode(p.Mode)
		if err != nil {
			return nil, err
		}
		pd, err := r.param(p, mode)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		if p.Unordered {
			op.AddUnorderedParam(pd)
		} else {
			op.AddParam(pd)
		}
	}

	if o.Return != nil {
		rp, err := r.param(o.Return, metadata.In)
		if err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
		rp.Mode = metadata.Out
		rp.IsReturn = true
		rp.Order = -1
		op.Return = rp
	}

	for _, f := range o.Faults {
		fd := &metadata.FaultDesc{
			Name:    soap.ParseQName(f.Name),
			XMLType: soap.ParseQName(f.XMLType),
		}
		if f.Type != "" {
			t, ok := r.types[f.Type]
			if !ok {
				return nil, fmt.Errorf("fault %s: unknown type %s", f.Name, f.Type)
			}
			fd.Type = t
		}
		op.AddFault(fd)
	}
	return op, nil
}

func (r *Registry) param(p *Param, mode metadata.ParamMode) (*metadata.ParamDesc, error) {
	t, err := r.paramType(p.Type, mode)
	if err != nil {
		return nil, err
	}
	pd := &metadata.ParamDesc{
		Name:    soap.ParseQName(p.Name),
		Mode:    mode,
		Type:    t,
		XMLType: soap.ParseQName(p.XMLType),
	}
	if p.Header {
		if mode == metadata.In || mode == metadata.InOut {
			pd.InHeader = true
		}
		if mode != metadata.In {
			pd.OutHeader = true
		}
	}
	return pd, nil
}
