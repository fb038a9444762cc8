package metadata

import (
	"reflect"
	"time"

	"github.com/vizee/gsoap/holder"
	"github.com/vizee/gsoap/soap"
)

// TypesNamespace qualifies wire types derived from Go types without a
// schema counterpart.
const TypesNamespace = "urn:gsoap:types"

var xsdAnyType = soap.QName{Space: soap.XSDNamespace, Local: "anyType"}

var xsdKinds = map[reflect.Kind]string{
	reflect.String:  "string",
	reflect.Bool:    "boolean",
	reflect.Int:     "int",
	reflect.Int8:    "byte",
	reflect.Int16:   "short",
	reflect.Int32:   "int",
	reflect.Int64:   "long",
	reflect.Uint:    "unsignedInt",
	reflect.Uint8:   "unsignedByte",
	reflect.Uint16:  "unsignedShort",
	reflect.Uint32:  "unsignedInt",
	reflect.Uint64:  "unsignedLong",
	reflect.Float32: "float",
	reflect.Float64: "double",
}

// XMLTypeOf derives the wire type of a Go type. Holders report the type of
// the value they carry.
func XMLTypeOf(t reflect.Type) soap.QName {
	if t == nil {
		return xsdAnyType
	}
	if holder.IsHolderType(t) {
		return XMLTypeOf(holder.ValueType(t))
	}
	switch t {
	case reflect.TypeOf(time.Time{}):
		return soap.QName{Space: soap.XSDNamespace, Local: "dateTime"}
	case reflect.TypeOf([]byte(nil)):
		return soap.QName{Space: soap.XSDNamespace, Local: "base64Binary"}
	}
	if t.Kind() == reflect.Pointer {
		return XMLTypeOf(t.Elem())
	}
	if local, ok := xsdKinds[t.Kind()]; ok && t.PkgPath() == "" {
		return soap.QName{Space: soap.XSDNamespace, Local: local}
	}
	if t.Name() == "" {
		if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			return soap.QName{Space: TypesNamespace, Local: "ArrayOf_" + XMLTypeOf(t.Elem()).Local}
		}
		return xsdAnyType
	}
	return soap.QName{Space: TypesNamespace, Local: t.Name()}
}
