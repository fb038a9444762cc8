package metadata

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/vizee/gsoap/holder"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/soap"
)

// suitable reports whether method can be exposed as an operation: exported,
// at most two results and, with two results, an error as the second one.
func suitable(method reflect.Method) bool {
	if !method.IsExported() {
		return false
	}
	mt := method.Type
	switch mt.NumOut() {
	case 0, 1:
		return true
	case 2:
		return mt.Out(1) == errorType
	}
	return false
}

func newOperationFromMethod(sd *ServiceDesc, method reflect.Method) *OperationDesc {
	op := NewOperation(method.Name)
	op.ElementQName = soap.QName{Space: sd.Namespace, Local: method.Name}
	mt := method.Type
	first := 1
	if mt.NumIn() > 1 && mt.In(1) == contextType {
		first++
	}
	for i := first; i < mt.NumIn(); i++ {
		pt := mt.In(i)
		mode := In
		if holder.IsHolderType(pt) {
			mode = InOut
		}
		op.AddParam(&ParamDesc{
			Name:    soap.QName{Local: "in" + strconv.Itoa(i-first)},
			Mode:    mode,
			Type:    pt,
			XMLType: XMLTypeOf(pt),
		})
	}
	return op
}

// Introspect binds the declared operations of sd to the methods of rcvrType,
// matched by name and parameter count. A declared operation left without a
// method is an error. When sd declares nothing, every suitable method
// becomes an operation.
func Introspect(sd *ServiceDesc, rcvrType reflect.Type) error {
	declared := len(sd.operations) > 0
	for i := 0; i < rcvrType.NumMethod(); i++ {
		method := rcvrType.Method(i)
		if !suitable(method) {
			log.Debugf("introspect %s: skip method %s", sd.Name, method.Name)
			continue
		}

		bound := false
		for _, op := range sd.byName[method.Name] {
			if op.IsBound() {
				continue
			}
			if err := op.Bind(method); err != nil {
				log.Debugf("introspect %s: %v", sd.Name, err)
				continue
			}
			bound = true
			break
		}
		if bound || declared {
			continue
		}

		op := newOperationFromMethod(sd, method)
		if err := op.Bind(method); err != nil {
			return fmt.Errorf("introspect %s: %w", sd.Name, err)
		}
		sd.AddOperation(op)
	}

	for _, op := range sd.operations {
		if !op.IsBound() {
			return fmt.Errorf("introspect %s: operation %s has no matching method on %s", sd.Name, op.Name, rcvrType)
		}
	}
	return nil
}
