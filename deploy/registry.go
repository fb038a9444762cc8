package deploy

import (
	"fmt"
	"reflect"
	"time"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/holder"
	"github.com/vizee/gsoap/metadata"
)

type backend struct {
	typ     reflect.Type
	factory engine.BackendFactory
}

// Registry maps the names used in descriptors to backends, handlers and
// types provided by the program.
type Registry struct {
	backends map[string]backend
	handlers map[string]engine.Handler
	types    map[string]reflect.Type
}

func NewRegistry() *Registry {
	r := &Registry{
		backends: make(map[string]backend),
		handlers: make(map[string]engine.Handler),
		types:    make(map[string]reflect.Type),
	}
	for name, t := range map[string]reflect.Type{
		"string":       reflect.TypeOf(""),
		"int":          reflect.TypeOf(0),
		"int32":        reflect.TypeOf(int32(0)),
		"int64":        reflect.TypeOf(int64(0)),
		"float32":      reflect.TypeOf(float32(0)),
		"float64":      reflect.TypeOf(float64(0)),
		"double":       reflect.TypeOf(float64(0)),
		"bool":         reflect.TypeOf(false),
		"boolean":      reflect.TypeOf(false),
		"bytes":        reflect.TypeOf([]byte(nil)),
		"base64Binary": reflect.TypeOf([]byte(nil)),
		"dateTime":     reflect.TypeOf(time.Time{}),
		"any":          reflect.TypeOf((*any)(nil)).Elem(),
	} {
		r.types[name] = t
	}
	return r
}

// RegisterBackend names a backend. sample fixes the receiver type whose
// methods are introspected; factory creates instances per the service scope.
func (r *Registry) RegisterBackend(name string, sample any, factory engine.BackendFactory) {
	r.backends[name] = backend{typ: reflect.TypeOf(sample), factory: factory}
}

func (r *Registry) RegisterHandler(name string, h engine.Handler) {
	r.handlers[name] = h
}

func (r *Registry) RegisterType(name string, t reflect.Type) {
	r.types[name] = t
}

// paramType resolves a declared type name. Output parameters of types with a
// predeclared holder are boxed in that holder.
func (r *Registry) paramType(name string, mode metadata.ParamMode) (reflect.Type, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %s", name)
	}
	if mode == metadata.In || holder.IsHolderType(t) {
		return t, nil
	}
	ht, ok := holder.TypeFor(t)
	if !ok {
		return nil, fmt.Errorf("type %s cannot carry an output value", name)
	}
	return ht, nil
}

func (r *Registry) handlerList(names []string) ([]engine.Handler, error) {
	hs := make([]engine.Handler, 0, len(names))
	for _, name := range names {
		h := r.handlers[name]
		if h == nil {
			return nil, fmt.Errorf("unknown handler %s", name)
		}
		hs = append(hs, h)
	}
	return hs, nil
}
