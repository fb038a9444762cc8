// Package rpc provides the pivot handler that binds RPC style messages to
// backend methods and builds their replies.
package rpc

import (
	"errors"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

// EndpointProperty, when set, is copied into generated descriptions.
const EndpointProperty = "endpoint"

type Provider struct {
	engine.BaseHandler
}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Invoke(ctx *engine.Context) error {
	msg, err := ctx.RequestMessage()
	if err != nil {
		return err
	}
	svc := ctx.Service()
	if svc == nil {
		return soap.ServerFault("no service bound to context")
	}
	desc := svc.Desc()

	op := ctx.Operation()
	if op == nil {
		op, err = desc.ResolveOperation(msg.Operation, len(msg.Params))
		if err != nil {
			log.Debugf("rpc: %v", err)
			return soap.NoSuchOperation(ctx.Version(), msg.Operation.Local).WithCause(err)
		}
		ctx.SetOperation(op)
	}

	call, err := bind(op, msg.Params, func(op *metadata.OperationDesc) error {
		if !Allowed(ctx, op) {
			return soap.ClientFault("operation %s is not allowed", op.Name).WithSubcode(soap.SubcodeAccessDenied)
		}
		return nil
	})
	if err != nil {
		return err
	}

	backend, err := svc.Backend(ctx)
	if err != nil {
		return err
	}
	ret, err := call.Invoke(ctx.Context(), backend)
	if err != nil {
		return invocationFault(op, err)
	}
	if op.IsOneWay() {
		ctx.SetResponse(nil)
		return nil
	}
	ctx.SetResponse(call.Reply(ctx.Version(), desc.Namespace, ret))
	return nil
}

func invocationFault(op *metadata.OperationDesc, err error) error {
	var mismatch *metadata.ArgumentMismatchError
	if errors.As(err, &mismatch) {
		return soap.ClientFault("dispatch failed: %v", mismatch).WithSubcode(soap.SubcodeDispatchFailed).WithCause(err)
	}
	var f *soap.Fault
	if errors.As(err, &f) {
		return f
	}
	if fd := op.FaultForError(err); fd != nil {
		return soap.ServerFault("%s", err.Error()).WithDetail(fd.Name, err).WithCause(err)
	}
	return soap.ServerFault("%s", err.Error()).WithCause(err)
}

// Describe generates the service description, leaving out operations the
// allow-list rejects.
func (p *Provider) Describe(ctx *engine.Context) error {
	svc := ctx.Service()
	if svc == nil {
		return soap.ServerFault("no service bound to context")
	}
	list := allowList(ctx)
	doc := metadata.NewDescription(svc.Desc(), func(op *metadata.OperationDesc) bool {
		return allowed(list, op.Name)
	})
	doc.Endpoint = ctx.GetString(EndpointProperty)
	ctx.SetDescription(doc)
	return nil
}
