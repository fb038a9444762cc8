// Package holder provides output containers for OUT and INOUT parameters.
package holder

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var ErrTypeMismatch = errors.New("holder: value type mismatch")

// Holder is a mutable box carrying a value across a call boundary.
type Holder interface {
	Get() any
	Set(v any) error
	Type() reflect.Type
}

type Of[T any] struct {
	Value T
}

func (h *Of[T]) Get() any {
	return h.Value
}

func (h *Of[T]) Set(v any) error {
	if v == nil {
		var zero T
		h.Value = zero
		return nil
	}
	t, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, h.Type())
	}
	h.Value = t
	return nil
}

func (h *Of[T]) Type() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

type (
	String  = Of[string]
	Int     = Of[int]
	Int32   = Of[int32]
	Int64   = Of[int64]
	Float32 = Of[float32]
	Float64 = Of[float64]
	Bool    = Of[bool]
	Bytes   = Of[[]byte]
	Time    = Of[time.Time]
	Any     = Of[any]
)

var holderType = reflect.TypeOf((*Holder)(nil)).Elem()

// IsHolderType reports whether t is a pointer to a struct implementing Holder.
func IsHolderType(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && t.Implements(holderType)
}

// New allocates an empty holder of type t.
func New(t reflect.Type) (Holder, error) {
	if !IsHolderType(t) {
		return nil, fmt.Errorf("holder: %v is not a holder type", t)
	}
	return reflect.New(t.Elem()).Interface().(Holder), nil
}

// ValueType returns the type of the value boxed by holder type t.
func ValueType(t reflect.Type) reflect.Type {
	h, err := New(t)
	if err != nil {
		return nil
	}
	return h.Type()
}

// TypeFor returns the holder type boxing values of type t, for the types with
// a predeclared holder.
func TypeFor(t reflect.Type) (reflect.Type, bool) {
	ht, ok := byValueType[t]
	return ht, ok
}

var byValueType = map[reflect.Type]reflect.Type{}

func init() {
	for _, h := range []Holder{&String{}, &Int{}, &Int32{}, &Int64{}, &Float32{}, &Float64{}, &Bool{}, &Bytes{}, &Time{}, &Any{}} {
		byValueType[h.Type()] = reflect.TypeOf(h)
	}
}
