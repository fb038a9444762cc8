package metadata

import (
	"fmt"
	"reflect"

	"github.com/vizee/gsoap/soap"
)

type Style uint8

const (
	RPC Style = iota
	Document
	Wrapped
	Message
)

func (s Style) String() string {
	switch s {
	case RPC:
		return "rpc"
	case Document:
		return "document"
	case Wrapped:
		return "wrapped"
	case Message:
		return "message"
	}
	return "unknown"
}

func ParseStyle(s string) (Style, error) {
	switch s {
	case "", "rpc":
		return RPC, nil
	case "document":
		return Document, nil
	case "wrapped":
		return Wrapped, nil
	case "message":
		return Message, nil
	}
	return 0, fmt.Errorf("unknown style %q", s)
}

type Use uint8

const (
	Encoded Use = iota
	Literal
)

func (u Use) String() string {
	if u == Literal {
		return "literal"
	}
	return "encoded"
}

func ParseUse(s string) (Use, error) {
	switch s {
	case "", "encoded":
		return Encoded, nil
	case "literal":
		return Literal, nil
	}
	return 0, fmt.Errorf("unknown use %q", s)
}

// Scope controls the lifetime of backend instances.
type Scope uint8

const (
	ApplicationScope Scope = iota
	SessionScope
	RequestScope
)

func (s Scope) String() string {
	switch s {
	case ApplicationScope:
		return "application"
	case SessionScope:
		return "session"
	case RequestScope:
		return "request"
	}
	return "unknown"
}

func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "application":
		return ApplicationScope, nil
	case "session":
		return SessionScope, nil
	case "request":
		return RequestScope, nil
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}

// ServiceDesc groups the operations of one service.
type ServiceDesc struct {
	Name           string
	Namespace      string
	Style          Style
	Use            Use
	Scope          Scope
	AllowedMethods []string
	Documentation  string

	operations []*OperationDesc
	byQName    map[soap.QName][]*OperationDesc
	byName     map[string][]*OperationDesc
}

func NewServiceDesc(name string, namespace string) *ServiceDesc {
	return &ServiceDesc{
		Name:      name,
		Namespace: namespace,
		byQName:   make(map[soap.QName][]*OperationDesc),
		byName:    make(map[string][]*OperationDesc),
	}
}

// AddOperation registers op. Operations without a dispatch key are keyed by
// the service namespace and the operation name.
func (sd *ServiceDesc) AddOperation(op *OperationDesc) {
	if op.ElementQName.IsZero() {
		op.ElementQName = soap.QName{Space: sd.Namespace, Local: op.Name}
	}
	sd.operations = append(sd.operations, op)
	sd.byQName[op.ElementQName] = append(sd.byQName[op.ElementQName], op)
	sd.byName[op.Name] = append(sd.byName[op.Name], op)
}

func (sd *ServiceDesc) Operations() []*OperationDesc {
	return sd.operations
}

func (sd *ServiceDesc) OperationsByName(name string) []*OperationDesc {
	return sd.byName[name]
}

// OperationsByElementQName returns every operation dispatched by key. An
// unqualified key matches on the local part.
func (sd *ServiceDesc) OperationsByElementQName(key soap.QName) []*OperationDesc {
	if ops := sd.byQName[key]; len(ops) > 0 {
		return ops
	}
	if key.Local == "" {
		return nil
	}
	var ops []*OperationDesc
	for _, op := range sd.operations {
		if op.ElementQName.Matches(key) {
			ops = append(ops, op)
		}
	}
	return ops
}

func (sd *ServiceDesc) OperationByElementQName(key soap.QName) *OperationDesc {
	if ops := sd.OperationsByElementQName(key); len(ops) > 0 {
		return ops[0]
	}
	return nil
}

// OperationBySignature finds the operation named name whose declared
// parameter types are exactly types.
func (sd *ServiceDesc) OperationBySignature(name string, types []reflect.Type) *OperationDesc {
next:
	for _, op := range sd.byName[name] {
		if len(op.params) != len(types) {
			continue
		}
		for i, p := range op.params {
			if p.Type != types[i] {
				continue next
			}
		}
		return op
	}
	return nil
}

// AllowsZeroArgDispatch reports whether an unmatched key may fall back to the
// unique operation without inputs. Document and wrapped services always do;
// other styles only for an empty body.
func (sd *ServiceDesc) AllowsZeroArgDispatch(key soap.QName) bool {
	return sd.Style == Document || sd.Style == Wrapped || key.IsZero()
}

// ResolveOperation maps a dispatch key and the number of wire arguments to an
// operation. Overloads sharing a key are told apart by input arity.
func (sd *ServiceDesc) ResolveOperation(key soap.QName, arity int) (*OperationDesc, error) {
	ops := sd.OperationsByElementQName(key)
	switch len(ops) {
	case 0:
	case 1:
		return ops[0], nil
	default:
		for _, op := range ops {
			if op.NumInParams() == arity {
				return op, nil
			}
		}
		return ops[0], nil
	}

	if sd.AllowsZeroArgDispatch(key) {
		var found *OperationDesc
		for _, op := range sd.operations {
			if op.NumInParams() != 0 {
				continue
			}
			if found != nil {
				found = nil
				break
			}
			found = op
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, fmt.Errorf("%s in service %s: %w", key, sd.Name, ErrOperationNotFound)
}
