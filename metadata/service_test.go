package metadata

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vizee/gsoap/holder"
	"github.com/vizee/gsoap/soap"
)

func zeroArgService(style Style, zeroArgs ...string) *ServiceDesc {
	sd := NewServiceDesc("svc", "urn:svc")
	sd.Style = style
	echo := NewOperation("echo")
	echo.AddParam(&ParamDesc{Name: qn("s"), Type: stringType})
	sd.AddOperation(echo)
	for _, name := range zeroArgs {
		sd.AddOperation(NewOperation(name))
	}
	return sd
}

func TestServiceDesc_ResolveOperation(t *testing.T) {
	tests := []struct {
		name    string
		sd      *ServiceDesc
		key     soap.QName
		arity   int
		want    string
		wantErr bool
	}{
		{name: "exact", sd: zeroArgService(RPC), key: soap.QName{Space: "urn:svc", Local: "echo"}, arity: 1, want: "echo"},
		{name: "local_only", sd: zeroArgService(RPC), key: qn("echo"), arity: 1, want: "echo"},
		{name: "empty_body_unique_zero_arg", sd: zeroArgService(RPC, "now"), key: soap.QName{}, want: "now"},
		{name: "empty_body_no_zero_arg", sd: zeroArgService(RPC), key: soap.QName{}, wantErr: true},
		{name: "empty_body_two_zero_arg", sd: zeroArgService(RPC, "now", "today"), key: soap.QName{}, wantErr: true},
		{name: "rpc_unknown_key", sd: zeroArgService(RPC, "now"), key: qn("missing"), wantErr: true},
		{name: "document_unknown_key", sd: zeroArgService(Document, "now"), key: qn("missing"), want: "now"},
		{name: "wrapped_unknown_key", sd: zeroArgService(Wrapped, "now"), key: qn("missing"), want: "now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := tt.sd.ResolveOperation(tt.key, tt.arity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveOperation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrOperationNotFound) {
					t.Fatalf("ResolveOperation() error = %v, want ErrOperationNotFound", err)
				}
				return
			}
			if op.Name != tt.want {
				t.Errorf("ResolveOperation() = %s, want %s", op.Name, tt.want)
			}
		})
	}
}

func TestServiceDesc_Overloads(t *testing.T) {
	sd := NewServiceDesc("svc", "urn:svc")
	one := NewOperation("sum")
	one.AddParam(&ParamDesc{Name: qn("a"), Type: intType})
	two := NewOperation("sum")
	two.AddParam(&ParamDesc{Name: qn("a"), Type: intType})
	two.AddParam(&ParamDesc{Name: qn("b"), Type: stringType})
	sd.AddOperation(one)
	sd.AddOperation(two)

	if op, _ := sd.ResolveOperation(qn("sum"), 2); op != two {
		t.Fatalf("ResolveOperation(arity 2) = %v", op)
	}
	if op, _ := sd.ResolveOperation(qn("sum"), 5); op != one {
		t.Fatalf("ResolveOperation(arity 5) = %v, want first overload", op)
	}
	if op := sd.OperationBySignature("sum", []reflect.Type{intType, stringType}); op != two {
		t.Fatalf("OperationBySignature() = %v", op)
	}
	if op := sd.OperationBySignature("sum", []reflect.Type{stringType}); op != nil {
		t.Fatalf("OperationBySignature(string) = %v", op)
	}
	if len(sd.OperationsByName("sum")) != 2 {
		t.Fatal("OperationsByName() lost an overload")
	}
	if one.ElementQName != (soap.QName{Space: "urn:svc", Local: "sum"}) {
		t.Fatalf("default element qname = %v", one.ElementQName)
	}
}

func TestServiceDesc_ResolveDoesNotMutate(t *testing.T) {
	sd := zeroArgService(RPC, "now")
	op := sd.OperationByElementQName(qn("echo"))
	before := *op.Params()[0]
	for i := 0; i < 2; i++ {
		if _, err := sd.ResolveOperation(qn("echo"), 1); err != nil {
			t.Fatal(err)
		}
	}
	if *op.Params()[0] != before || op.NumInParams() != 1 || op.NumParams() != 1 {
		t.Fatal("resolution mutated operation metadata")
	}
}

type greeter struct{}

func (*greeter) Hello(name string) string { return "hello " + name }
func (*greeter) Swap(v *holder.String)    { v.Value = "y" }
func (*greeter) Broken() (int, int)       { return 0, 0 }

func TestIntrospect(t *testing.T) {
	sd := NewServiceDesc("greeter", "urn:greeter")
	if err := Introspect(sd, reflect.TypeOf(&greeter{})); err != nil {
		t.Fatal(err)
	}
	if len(sd.Operations()) != 2 {
		t.Fatalf("operations = %d, want 2", len(sd.Operations()))
	}
	hello := sd.OperationByElementQName(soap.QName{Space: "urn:greeter", Local: "Hello"})
	if hello == nil || !hello.IsBound() {
		t.Fatal("Hello not introspected")
	}
	if p := hello.Params()[0]; p.Name.Local != "in0" || p.Mode != In || p.Type != stringType {
		t.Errorf("Hello param = %v", p)
	}
	swap := sd.OperationsByName("Swap")[0]
	if p := swap.Params()[0]; p.Mode != InOut || p.XMLType.Local != "string" {
		t.Errorf("Swap param = %v %v", p, p.XMLType)
	}
	if swap.Return != nil {
		t.Errorf("void method has return %v", swap.Return)
	}
}

func TestIntrospect_Declared(t *testing.T) {
	sd := NewServiceDesc("greeter", "urn:greeter")
	hello := NewOperation("Hello")
	hello.AddParam(&ParamDesc{Name: qn("name")})
	hello.Return = &ParamDesc{Name: qn("greeting"), Mode: Out, IsReturn: true}
	sd.AddOperation(hello)
	if err := Introspect(sd, reflect.TypeOf(&greeter{})); err != nil {
		t.Fatal(err)
	}
	if len(sd.Operations()) != 1 {
		t.Fatalf("declared service grew to %d operations", len(sd.Operations()))
	}
	if hello.Params()[0].Type != stringType || hello.Return.Type != stringType {
		t.Fatal("declared operation types not filled")
	}

	missing := NewServiceDesc("greeter", "urn:greeter")
	missing.AddOperation(NewOperation("Nope"))
	err := Introspect(missing, reflect.TypeOf(&greeter{}))
	if err == nil || !strings.Contains(err.Error(), "Nope") {
		t.Fatalf("Introspect() error = %v", err)
	}
}

func TestNewDescription(t *testing.T) {
	sd := NewServiceDesc("greeter", "urn:greeter")
	if err := Introspect(sd, reflect.TypeOf(&greeter{})); err != nil {
		t.Fatal(err)
	}
	doc := NewDescription(sd, func(op *OperationDesc) bool { return op.Name == "Hello" })
	if len(doc.Operations) != 1 {
		t.Fatalf("document operations = %d", len(doc.Operations))
	}
	od := doc.Operations[0]
	if od.Return == nil || od.Return.Name != "HelloReturn" || od.Return.Type != "{http://www.w3.org/2001/XMLSchema}string" {
		t.Fatalf("document return = %+v", od.Return)
	}
	if doc.Style != "rpc" || doc.Scope != "application" {
		t.Fatalf("document = %+v", doc)
	}
}
