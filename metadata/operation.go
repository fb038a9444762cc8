package metadata

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vizee/gsoap/soap"
)

var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrNotBound          = errors.New("operation is not bound to a method")
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

type MEP uint8

const (
	RequestResponse MEP = iota
	OneWay
	SolicitResponse
	Notification
)

func (m MEP) String() string {
	switch m {
	case RequestResponse:
		return "request-response"
	case OneWay:
		return "one-way"
	case SolicitResponse:
		return "solicit-response"
	case Notification:
		return "notification"
	}
	return "unknown"
}

func ParseMEP(s string) (MEP, error) {
	switch s {
	case "", "request-response":
		return RequestResponse, nil
	case "one-way":
		return OneWay, nil
	case "solicit-response":
		return SolicitResponse, nil
	case "notification":
		return Notification, nil
	}
	return 0, fmt.Errorf("unknown message exchange pattern %q", s)
}

// ArgumentMismatchError reports arguments that do not fit the bound method.
type ArgumentMismatchError struct {
	Signature string
	Actual    []string
	Reason    string
}

func (e *ArgumentMismatchError) Error() string {
	return fmt.Sprintf("%s: method %s called with (%s)", e.Reason, e.Signature, strings.Join(e.Actual, ", "))
}

// OperationDesc describes one callable operation. It is built at deploy time
// and read concurrently afterwards.
type OperationDesc struct {
	Name          string
	ElementQName  soap.QName
	Return        *ParamDesc
	MEP           MEP
	Documentation string

	params []*ParamDesc
	faults []*FaultDesc
	numIn  int
	numOut int

	method      reflect.Method
	withContext bool
	hasValue    bool
	hasError    bool
}

func NewOperation(name string) *OperationDesc {
	return &OperationDesc{Name: name}
}

func (op *OperationDesc) count(p *ParamDesc) {
	if p.IsInput() {
		op.numIn++
	}
	if p.IsOutput() {
		op.numOut++
	}
}

// AddParam appends p and assigns it the next positional order.
func (op *OperationDesc) AddParam(p *ParamDesc) {
	if p.Mode == 0 {
		p.Mode = In
	}
	p.Order = len(op.params)
	op.params = append(op.params, p)
	op.count(p)
}

// AddUnorderedParam appends p without a positional order. Binding places
// such parameters by wire position.
func (op *OperationDesc) AddUnorderedParam(p *ParamDesc) {
	if p.Mode == 0 {
		p.Mode = In
	}
	p.Order = -1
	op.params = append(op.params, p)
	op.count(p)
}

func (op *OperationDesc) Params() []*ParamDesc {
	return op.params
}

func (op *OperationDesc) NumParams() int {
	return len(op.params)
}

func (op *OperationDesc) NumInParams() int {
	return op.numIn
}

func (op *OperationDesc) NumOutParams() int {
	return op.numOut
}

func (op *OperationDesc) InParams() []*ParamDesc {
	ps := make([]*ParamDesc, 0, op.numIn)
	for _, p := range op.params {
		if p.IsInput() {
			ps = append(ps, p)
		}
	}
	return ps
}

func (op *OperationDesc) OutParams() []*ParamDesc {
	ps := make([]*ParamDesc, 0, op.numOut)
	for _, p := range op.params {
		if p.IsOutput() {
			ps = append(ps, p)
		}
	}
	return ps
}

func (op *OperationDesc) ParamByOrder(i int) *ParamDesc {
	for _, p := range op.params {
		if p.Order == i {
			return p
		}
	}
	return nil
}

func (op *OperationDesc) findParam(name soap.QName, skip ParamMode) *ParamDesc {
	var loose *ParamDesc
	for _, p := range op.params {
		if p.Mode == skip {
			continue
		}
		if p.Name == name {
			return p
		}
		if loose == nil && p.Name.Matches(name) {
			loose = p
		}
	}
	return loose
}

// ParamByQName returns the first parameter named name. Exact matches win over
// matches on the local part alone.
func (op *OperationDesc) ParamByQName(name soap.QName) *ParamDesc {
	return op.findParam(name, 0)
}

// InParamByQName only considers IN and INOUT parameters.
func (op *OperationDesc) InParamByQName(name soap.QName) *ParamDesc {
	return op.findParam(name, Out)
}

// OutParamByQName only considers OUT and INOUT parameters.
func (op *OperationDesc) OutParamByQName(name soap.QName) *ParamDesc {
	return op.findParam(name, In)
}

func (op *OperationDesc) AddFault(f *FaultDesc) {
	op.faults = append(op.faults, f)
}

func (op *OperationDesc) Faults() []*FaultDesc {
	return op.faults
}

// FaultForError returns the declared fault whose type matches err.
func (op *OperationDesc) FaultForError(err error) *FaultDesc {
	for _, f := range op.faults {
		if f.Type == nil {
			continue
		}
		target := reflect.New(f.Type)
		if errors.As(err, target.Interface()) {
			return f
		}
	}
	return nil
}

func (op *OperationDesc) IsOneWay() bool {
	return op.MEP == OneWay
}

func (op *OperationDesc) IsBound() bool {
	return op.method.Func.IsValid()
}

// Bind attaches method to op. The method's parameters after the receiver
// (and an optional leading context.Context) must match the declared
// parameter count; undeclared parameter and return types are filled from
// the method signature.
func (op *OperationDesc) Bind(method reflect.Method) error {
	mt := method.Type
	first := 1
	withContext := mt.NumIn() > 1 && mt.In(1) == contextType
	if withContext {
		first++
	}
	if n := mt.NumIn() - first; n != len(op.params) {
		return fmt.Errorf("operation %s declares %d parameters, method %s takes %d", op.Name, len(op.params), method.Name, n)
	}

	var hasValue, hasError bool
	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) == errorType {
			hasError = true
		} else {
			hasValue = true
		}
	case 2:
		if mt.Out(1) != errorType {
			return fmt.Errorf("method %s: second result must be error", method.Name)
		}
		hasValue, hasError = true, true
	default:
		return fmt.Errorf("method %s has %d results", method.Name, mt.NumOut())
	}

	for _, p := range op.params {
		if p.Order < 0 {
			continue
		}
		if p.Type == nil {
			p.Type = mt.In(first + p.Order)
		}
		if p.XMLType.IsZero() {
			p.XMLType = XMLTypeOf(p.Type)
		}
	}
	if !hasValue && op.Return != nil {
		return fmt.Errorf("operation %s declares a return value, method %s returns none", op.Name, method.Name)
	}
	if hasValue {
		if op.Return == nil {
			op.Return = &ParamDesc{Mode: Out, IsReturn: true, Order: -1}
		}
		if op.Return.Type == nil {
			op.Return.Type = mt.Out(0)
		}
		if op.Return.XMLType.IsZero() {
			op.Return.XMLType = XMLTypeOf(op.Return.Type)
		}
	}

	op.method = method
	op.withContext = withContext
	op.hasValue = hasValue
	op.hasError = hasError
	return nil
}

// Signature renders the bound method signature, or the declared one.
func (op *OperationDesc) Signature() string {
	var sb strings.Builder
	sb.WriteString(op.Name)
	sb.WriteByte('(')
	if op.IsBound() {
		mt := op.method.Type
		first := 1
		if op.withContext {
			first++
		}
		for i := first; i < mt.NumIn(); i++ {
			if i > first {
				sb.WriteString(", ")
			}
			if mt.IsVariadic() && i == mt.NumIn()-1 {
				sb.WriteString("..." + mt.In(i).Elem().String())
			} else {
				sb.WriteString(mt.In(i).String())
			}
		}
	} else {
		for i, p := range op.params {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%v", p.Type)
		}
	}
	sb.WriteByte(')')
	if op.Return != nil && op.Return.Type != nil {
		sb.WriteByte(' ')
		sb.WriteString(op.Return.Type.String())
	}
	return sb.String()
}

func typeNames(args []any) []string {
	names := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			names[i] = "nil"
		} else {
			names[i] = reflect.TypeOf(a).String()
		}
	}
	return names
}

// Call invokes the bound method on rcvr with positional args.
func (op *OperationDesc) Call(ctx context.Context, rcvr any, args []any) (any, error) {
	if !op.IsBound() {
		return nil, fmt.Errorf("%s: %w", op.Name, ErrNotBound)
	}
	mt := op.method.Type
	mismatch := func(reason string) error {
		return &ArgumentMismatchError{Signature: op.Signature(), Actual: typeNames(args), Reason: reason}
	}

	rv := reflect.ValueOf(rcvr)
	if !rv.IsValid() || !rv.Type().AssignableTo(mt.In(0)) {
		return nil, fmt.Errorf("backend %T does not provide %s", rcvr, op.method.Name)
	}
	in := make([]reflect.Value, 0, mt.NumIn())
	in = append(in, rv)
	if op.withContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
	}
	if len(args) != mt.NumIn()-len(in) {
		return nil, mismatch("wrong number of arguments")
	}
	for _, a := range args {
		pt := mt.In(len(in))
		if a == nil {
			switch pt.Kind() {
			case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
				in = append(in, reflect.Zero(pt))
				continue
			}
			return nil, mismatch("argument type mismatch")
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(pt) {
			return nil, mismatch("argument type mismatch")
		}
		in = append(in, av)
	}

	// The variadic tail travels as one slice argument.
	var out []reflect.Value
	if mt.IsVariadic() {
		out = op.method.Func.CallSlice(in)
	} else {
		out = op.method.Func.Call(in)
	}
	var (
		ret any
		err error
	)
	if op.hasValue {
		ret = out[0].Interface()
	}
	if op.hasError {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	return ret, err
}
