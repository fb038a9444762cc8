package engine

import (
	"strings"

	"github.com/vizee/gsoap/soap"
)

// mustUnderstandChecker runs last in every service request list and rejects
// mandatory headers addressed to the service that nothing processed.
type mustUnderstandChecker struct {
	BaseHandler
	service *Service
}

func (m *mustUnderstandChecker) Invoke(ctx *Context) error {
	msg, err := ctx.RequestMessage()
	if err != nil {
		return err
	}
	var missed []soap.QName
	for _, h := range msg.Headers {
		if !h.MustUnderstand || h.Processed() || h.Actor == soap.Role12None {
			continue
		}
		if !m.service.playsRole(h.Actor) || m.service.understands(h.Name) {
			continue
		}
		missed = append(missed, h.Name)
	}
	if len(missed) == 0 {
		return nil
	}
	names := make([]string, len(missed))
	for i, q := range missed {
		names[i] = q.String()
	}
	f := soap.NewFault(soap.CodeMustUnderstand, "did not understand header %s", strings.Join(names, ", "))
	f.NotUnderstood = missed
	return f
}
