package message

import "github.com/vizee/gsoap/soap"

type Header struct {
	Name           soap.QName
	Actor          string
	MustUnderstand bool
	Value          any

	processed bool
}

// MarkProcessed records that a handler understood the header.
func (h *Header) MarkProcessed() {
	h.processed = true
}

func (h *Header) Processed() bool {
	return h.processed
}

type Param struct {
	Name  soap.QName
	Value any
}

// Message is a decoded SOAP message. An RPC body is the root element name in
// Operation followed by its ordered parameters; a fault body sets Fault.
type Message struct {
	Version   soap.Version
	Headers   []*Header
	Operation soap.QName
	Params    []*Param
	Fault     *soap.Fault
}

func New(v soap.Version) *Message {
	return &Message{Version: v}
}

func NewFault(v soap.Version, f *soap.Fault) *Message {
	return &Message{Version: v, Fault: f}
}

func (m *Message) IsFault() bool {
	return m.Fault != nil
}

func (m *Message) AddHeader(h *Header) {
	m.Headers = append(m.Headers, h)
}

func (m *Message) Header(name soap.QName) *Header {
	for _, h := range m.Headers {
		if h.Name.Matches(name) {
			return h
		}
	}
	return nil
}

func (m *Message) AddParam(name soap.QName, value any) *Param {
	p := &Param{Name: name, Value: value}
	m.Params = append(m.Params, p)
	return p
}

func (m *Message) Param(name soap.QName) *Param {
	for _, p := range m.Params {
		if p.Name.Matches(name) {
			return p
		}
	}
	return nil
}
