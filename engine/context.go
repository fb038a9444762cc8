package engine

import (
	"context"
	"fmt"

	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

// Context carries one invocation through the engine. Contexts are pooled and
// must not be retained after the engine releases them.
type Context struct {
	ctx       context.Context
	engine    *Engine
	service   *Service
	operation *metadata.OperationDesc
	transport string
	target    string
	version   soap.Version

	raw       []byte
	codec     message.Codec
	request   *message.Message
	response  *message.Message
	doc       *metadata.Description
	session   *Session
	values    map[string]any
	pastPivot bool
}

func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *Context) Engine() *Engine {
	return c.engine
}

func (c *Context) Service() *Service {
	return c.service
}

func (c *Context) Operation() *metadata.OperationDesc {
	return c.operation
}

func (c *Context) SetOperation(op *metadata.OperationDesc) {
	c.operation = op
}

func (c *Context) Transport() string {
	return c.transport
}

func (c *Context) TargetService() string {
	return c.target
}

// SetTargetService names the service the message is routed to. The name is
// resolved when the engine reaches the service stage.
func (c *Context) SetTargetService(name string) {
	c.target = name
}

func (c *Context) Version() soap.Version {
	if c.request != nil && c.request.Version != 0 {
		return c.request.Version
	}
	if c.version != 0 {
		return c.version
	}
	if c.engine != nil {
		return c.engine.version
	}
	return soap.SOAP11
}

func (c *Context) SetVersion(v soap.Version) {
	c.version = v
}

func (c *Context) Codec() message.Codec {
	return c.codec
}

// SetPayload installs an undecoded request. It is decoded on the first call
// to RequestMessage.
func (c *Context) SetPayload(raw []byte, codec message.Codec) {
	c.raw = raw
	c.codec = codec
	c.request = nil
}

func (c *Context) SetRequestMessage(msg *message.Message) {
	c.request = msg
	c.raw = nil
}

// RequestMessage decodes the payload once and runs the engine's parse hooks,
// which may pick the target service from the message content.
func (c *Context) RequestMessage() (*message.Message, error) {
	if c.request != nil {
		return c.request, nil
	}
	if c.codec == nil {
		return nil, soap.ClientFault("no request message")
	}
	msg, err := c.codec.Decode(c.raw)
	if err != nil {
		return nil, soap.ClientFault("malformed request: %v", err).WithCause(err)
	}
	c.request = msg
	if c.engine != nil {
		for _, hook := range c.engine.parseHooks {
			if err := hook(c, msg); err != nil {
				return nil, err
			}
		}
	}
	return msg, nil
}

func (c *Context) Response() *message.Message {
	return c.response
}

func (c *Context) SetResponse(msg *message.Message) {
	c.response = msg
}

func (c *Context) Description() *metadata.Description {
	return c.doc
}

func (c *Context) SetDescription(doc *metadata.Description) {
	c.doc = doc
}

func (c *Context) Session() *Session {
	return c.session
}

func (c *Context) SetSession(s *Session) {
	c.session = s
}

func (c *Context) PastPivot() bool {
	return c.pastPivot
}

func (c *Context) SetPastPivot(v bool) {
	c.pastPivot = v
}

// Set stores a property local to this invocation.
func (c *Context) Set(name string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[name] = value
}

// Get looks a property up locally, then in the service options, then in the
// engine options.
func (c *Context) Get(name string) (any, bool) {
	if v, ok := c.values[name]; ok {
		return v, true
	}
	if c.service != nil {
		return c.service.options.Get(name)
	}
	if c.engine != nil {
		return c.engine.options.Get(name)
	}
	return nil, false
}

func (c *Context) GetString(name string) string {
	v, ok := c.Get(name)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (c *Context) reset() {
	c.ctx = nil
	c.engine = nil
	c.service = nil
	c.operation = nil
	c.transport = ""
	c.target = ""
	c.version = 0
	c.raw = nil
	c.codec = nil
	c.request = nil
	c.response = nil
	c.doc = nil
	c.session = nil
	c.values = nil
	c.pastPivot = false
}
