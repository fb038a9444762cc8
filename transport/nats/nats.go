// Package natstransport serves the engine over NATS request/reply.
//
// Calls are published to <prefix>.invoke.<service> with the codec media type
// in the Content-Type header; descriptions are requested on
// <prefix>.describe.<service>.
package natstransport

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/handlers/dispatch"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/soap"
)

const (
	TransportName = "nats"

	DefaultPrefix = "gsoap"

	ContentTypeHeader = "Content-Type"
	SOAPActionHeader  = "SOAPAction"
	// FaultHeader is set on replies carrying a fault, valued with the fault
	// code.
	FaultHeader = "Soap-Fault"
	// ErrorHeader is set when no reply could be produced.
	ErrorHeader = "Soap-Error"
)

// Connect opens a connection with reconnect logging.
func Connect(url string, name string) (*nats.Conn, error) {
	log.Infof("natstransport: connecting to %s as %s", url, name)
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warnf("natstransport: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("natstransport: reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("natstransport: connect %s: %w", url, err)
	}
	return nc, nil
}

type Server struct {
	engine  *engine.Engine
	nc      *nats.Conn
	prefix  string
	timeout time.Duration

	mu   sync.Mutex
	subs []*nats.Subscription
}

func New(e *engine.Engine, nc *nats.Conn, prefix string) *Server {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Server{
		engine:  e,
		nc:      nc,
		prefix:  prefix,
		timeout: 30 * time.Second,
	}
}

func (s *Server) InvokeSubject(service string) string {
	return s.prefix + ".invoke." + service
}

func (s *Server) DescribeSubject(service string) string {
	return s.prefix + ".describe." + service
}

// Start subscribes to the invoke and describe subjects of every service.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for subject, handler := range map[string]nats.MsgHandler{
		s.InvokeSubject("*"):   s.handleInvoke,
		s.DescribeSubject("*"): s.handleDescribe,
	} {
		sub, err := s.nc.Subscribe(subject, handler)
		if err != nil {
			s.unsubscribe()
			return fmt.Errorf("natstransport: subscribe %s: %w", subject, err)
		}
		log.Infof("natstransport: subscribed to %s", subject)
		s.subs = append(s.subs, sub)
	}
	return s.nc.Flush()
}

func (s *Server) unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Warnf("natstransport: unsubscribe %s: %v", sub.Subject, err)
		}
	}
	s.subs = nil
}

func (s *Server) Stop() {
	s.mu.Lock()
	s.unsubscribe()
	s.mu.Unlock()
}

func serviceOf(subject string) string {
	return subject[strings.LastIndexByte(subject, '.')+1:]
}

func respond(msg *nats.Msg, reply *nats.Msg) {
	if msg.Reply == "" {
		return
	}
	if err := msg.RespondMsg(reply); err != nil {
		log.Warnf("natstransport: respond on %s: %v", msg.Subject, err)
	}
}

func errorReply(text string) *nats.Msg {
	reply := nats.NewMsg("")
	reply.Header.Set(ErrorHeader, text)
	return reply
}

func (s *Server) handleInvoke(msg *nats.Msg) {
	contentType := msg.Header.Get(ContentTypeHeader)
	codec := s.engine.Codec(contentType)
	if codec == nil {
		respond(msg, errorReply(fmt.Sprintf("unsupported content type %q", contentType)))
		return
	}
	props := map[string]any{}
	if action := msg.Header.Get(SOAPActionHeader); action != "" {
		props[dispatch.SOAPActionProperty] = action
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	data, fault, err := s.engine.Invoke(ctx, &engine.Request{
		Transport:  TransportName,
		Service:    serviceOf(msg.Subject),
		Codec:      codec,
		Body:       msg.Data,
		Properties: props,
	})
	if err != nil {
		log.Errorf("natstransport: invoke %s: %v", msg.Subject, err)
		respond(msg, errorReply(err.Error()))
		return
	}
	reply := nats.NewMsg("")
	reply.Data = data
	reply.Header.Set(ContentTypeHeader, codec.ContentType())
	if fault != nil {
		reply.Header.Set(FaultHeader, string(fault.Code))
	}
	respond(msg, reply)
}

func (s *Server) handleDescribe(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	doc, err := s.engine.DescribeService(ctx, TransportName, serviceOf(msg.Subject), nil)
	if err != nil {
		f := soap.AsFault(err)
		reply := errorReply(f.String)
		reply.Header.Set(FaultHeader, string(f.Code))
		respond(msg, reply)
		return
	}
	data, err := xml.Marshal(doc)
	if err != nil {
		respond(msg, errorReply(err.Error()))
		return
	}
	reply := nats.NewMsg("")
	reply.Data = data
	reply.Header.Set(ContentTypeHeader, "text/xml; charset=utf-8")
	respond(msg, reply)
}
