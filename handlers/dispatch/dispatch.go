// Package dispatch routes messages that arrive without a target service.
package dispatch

import (
	"strings"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/message"
)

// SOAPActionProperty is set by transports to the SOAPAction of a request.
const SOAPActionProperty = "soapAction"

// ActionHandler picks the target service from the SOAPAction: the last path
// segment of the action URI, surrounding quotes removed.
type ActionHandler struct {
	engine.BaseHandler
}

func NewActionHandler() *ActionHandler {
	return &ActionHandler{}
}

func serviceFromAction(action string) string {
	action = strings.Trim(strings.TrimSpace(action), `"`)
	if action == "" {
		return ""
	}
	action = strings.TrimRight(action, "/")
	if i := strings.LastIndexAny(action, "/#:"); i >= 0 {
		action = action[i+1:]
	}
	return action
}

func (h *ActionHandler) Invoke(ctx *engine.Context) error {
	if ctx.TargetService() != "" {
		return nil
	}
	name := serviceFromAction(ctx.GetString(SOAPActionProperty))
	if name != "" && ctx.Engine().Service(name) != nil {
		ctx.SetTargetService(name)
	}
	return nil
}

func (h *ActionHandler) Describe(ctx *engine.Context) error {
	return h.Invoke(ctx)
}

// NamespaceHook routes a decoded message to the service owning the namespace
// of its body element.
func NamespaceHook(ctx *engine.Context, msg *message.Message) error {
	if ctx.TargetService() != "" || msg.Operation.Space == "" {
		return nil
	}
	if svc := ctx.Engine().ServiceByNamespace(msg.Operation.Space); svc != nil {
		ctx.SetTargetService(svc.Name())
	}
	return nil
}
